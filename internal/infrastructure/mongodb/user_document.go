package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

type oauthDocument struct {
	GoogleID    string `bson:"googleId,omitempty"`
	GoogleEmail string `bson:"googleEmail,omitempty"`
}

type userDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Email           string             `bson:"email"`
	Phone           string             `bson:"phone,omitempty"`
	PasswordHash    *string            `bson:"passwordHash,omitempty"`
	IsAdmin         bool               `bson:"isAdmin"`
	IsBusiness      bool               `bson:"isBusiness"`
	IsUser          bool               `bson:"isUser"`
	TempAdminExpiry *time.Time         `bson:"tempAdminExpiry,omitempty"`
	OAuth           *oauthDocument     `bson:"oauth,omitempty"`
	AvatarURL       string             `bson:"avatarUrl,omitempty"`

	ResetPasswordToken   *string    `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time `bson:"resetPasswordExpires,omitempty"`

	LastLogin *time.Time `bson:"lastLogin,omitempty"`
	IsOnline  bool       `bson:"isOnline"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func fromEntity(u *entity.User) userDocument {
	doc := userDocument{
		Name:                 u.Name,
		Email:                entity.NormalizeEmail(u.Email),
		Phone:                u.Phone,
		PasswordHash:         u.PasswordHash,
		IsAdmin:              u.Roles.IsAdmin,
		IsBusiness:           u.Roles.IsBusiness,
		IsUser:               u.Roles.IsUser,
		TempAdminExpiry:      u.TempAdminExpiry,
		AvatarURL:            u.AvatarURL,
		ResetPasswordToken:   u.ResetPasswordToken,
		ResetPasswordExpires: u.ResetPasswordExpires,
		LastLogin:            u.LastLogin,
		IsOnline:             u.IsOnline,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
	if u.OAuth != nil {
		doc.OAuth = &oauthDocument{GoogleID: u.OAuth.GoogleID, GoogleEmail: u.OAuth.GoogleEmail}
	}
	return doc
}

func (d userDocument) toEntity() *entity.User {
	u := &entity.User{
		ID:                   d.ID.Hex(),
		Name:                 d.Name,
		Email:                d.Email,
		Phone:                d.Phone,
		PasswordHash:         d.PasswordHash,
		Roles:                entity.RoleFlags{IsAdmin: d.IsAdmin, IsBusiness: d.IsBusiness, IsUser: d.IsUser},
		TempAdminExpiry:      d.TempAdminExpiry,
		AvatarURL:            d.AvatarURL,
		ResetPasswordToken:   d.ResetPasswordToken,
		ResetPasswordExpires: d.ResetPasswordExpires,
		LastLogin:            d.LastLogin,
		IsOnline:             d.IsOnline,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.OAuth != nil {
		u.OAuth = &entity.OAuthLink{GoogleID: d.OAuth.GoogleID, GoogleEmail: d.OAuth.GoogleEmail}
	}
	return u
}

// updateDocument translates a patch into a $set/$unset pair.
func updateDocument(p entity.UserPatch, now time.Time) bson.M {
	p = p.Normalize()
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.PasswordHash != nil {
		set["passwordHash"] = *p.PasswordHash
	}
	if p.AvatarURL != nil {
		set["avatarUrl"] = *p.AvatarURL
	}
	if p.IsAdmin != nil {
		set["isAdmin"] = *p.IsAdmin
	}
	if p.IsBusiness != nil {
		set["isBusiness"] = *p.IsBusiness
	}
	if p.IsUser != nil {
		set["isUser"] = *p.IsUser
	}
	if p.TempAdminExpiry != nil {
		set["tempAdminExpiry"] = *p.TempAdminExpiry
	} else if p.ClearTempAdminExpiry {
		unset["tempAdminExpiry"] = ""
	}
	if p.ClearResetToken {
		unset["resetPasswordToken"] = ""
		unset["resetPasswordExpires"] = ""
	} else {
		if p.ResetPasswordToken != nil {
			set["resetPasswordToken"] = *p.ResetPasswordToken
		}
		if p.ResetPasswordExpires != nil {
			set["resetPasswordExpires"] = *p.ResetPasswordExpires
		}
	}
	if p.OAuth != nil {
		set["oauth"] = oauthDocument{GoogleID: p.OAuth.GoogleID, GoogleEmail: p.OAuth.GoogleEmail}
	}
	if p.LastLogin != nil {
		set["lastLogin"] = *p.LastLogin
	}
	if p.IsOnline != nil {
		set["isOnline"] = *p.IsOnline
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
