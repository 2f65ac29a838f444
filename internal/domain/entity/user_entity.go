package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the account domain.
// PasswordHash is nil for accounts created through OAuth that never set a local password.
type User struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	PasswordHash    *string
	Roles           RoleFlags
	TempAdminExpiry *time.Time
	OAuth           *OAuthLink
	AvatarURL       string

	ResetPasswordToken   *string
	ResetPasswordExpires *time.Time

	LastLogin *time.Time
	IsOnline  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OAuthLink associates a local user with a Google account.
type OAuthLink struct {
	GoogleID    string
	GoogleEmail string
}

// OAuthProfile is what an identity provider hands back after the code exchange.
type OAuthProfile struct {
	ProviderID    string
	Emails        []string
	EmailVerified bool
	DisplayName   string
}

// PrimaryEmail returns the first non-empty email, normalized.
func (p OAuthProfile) PrimaryEmail() string {
	for _, e := range p.Emails {
		if n := NormalizeEmail(e); n != "" {
			return n
		}
	}
	return ""
}

// HasPassword reports whether the user can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsGoogleLinked reports whether the account is linked to the given Google subject.
func (u *User) IsGoogleLinked(googleID string) bool {
	return u.OAuth != nil && u.OAuth.GoogleID != "" && u.OAuth.GoogleID == googleID
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch describes a single atomic partial update. Nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	Phone        *string
	PasswordHash *string
	AvatarURL    *string

	IsAdmin    *bool
	IsBusiness *bool
	IsUser     *bool

	TempAdminExpiry      *time.Time
	ClearTempAdminExpiry bool

	ResetPasswordToken   *string
	ResetPasswordExpires *time.Time
	ClearResetToken      bool

	OAuth *OAuthLink

	LastLogin *time.Time
	IsOnline  *bool
}

// Normalize enforces record invariants on the patch:
// an explicit isAdmin write (true or false) drops any temporary grant expiry
// unless the same patch sets a new one, and emails are stored lower-cased.
func (p UserPatch) Normalize() UserPatch {
	if p.IsAdmin != nil && p.TempAdminExpiry == nil {
		p.ClearTempAdminExpiry = true
	}
	if p.IsAdmin != nil && !*p.IsAdmin {
		p.TempAdminExpiry = nil
		p.ClearTempAdminExpiry = true
	}
	if p.Email != nil {
		e := NormalizeEmail(*p.Email)
		p.Email = &e
	}
	if p.ClearResetToken {
		p.ResetPasswordToken = nil
		p.ResetPasswordExpires = nil
	}
	return p
}

// Apply mutates u in place with the (normalized) patch.
func (p UserPatch) Apply(u *User) {
	p = p.Normalize()
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.PasswordHash != nil {
		h := *p.PasswordHash
		u.PasswordHash = &h
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.IsAdmin != nil {
		u.Roles.IsAdmin = *p.IsAdmin
	}
	if p.IsBusiness != nil {
		u.Roles.IsBusiness = *p.IsBusiness
	}
	if p.IsUser != nil {
		u.Roles.IsUser = *p.IsUser
	}
	if p.ClearTempAdminExpiry {
		u.TempAdminExpiry = nil
	}
	if p.TempAdminExpiry != nil {
		t := *p.TempAdminExpiry
		u.TempAdminExpiry = &t
	}
	if p.ClearResetToken {
		u.ResetPasswordToken = nil
		u.ResetPasswordExpires = nil
	}
	if p.ResetPasswordToken != nil {
		tok := *p.ResetPasswordToken
		u.ResetPasswordToken = &tok
	}
	if p.ResetPasswordExpires != nil {
		t := *p.ResetPasswordExpires
		u.ResetPasswordExpires = &t
	}
	if p.OAuth != nil {
		link := *p.OAuth
		u.OAuth = &link
	}
	if p.LastLogin != nil {
		t := *p.LastLogin
		u.LastLogin = &t
	}
	if p.IsOnline != nil {
		u.IsOnline = *p.IsOnline
	}
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }
