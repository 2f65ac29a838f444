package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/response"
	"github.com/oksasatya/shopdesk-api/pkg/validation"
)

// userResponse is the public user projection. It never carries the password hash or
// reset token fields.
type userResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone,omitempty"`
	AvatarURL       string             `json:"avatarUrl,omitempty"`
	IsAdmin         bool               `json:"isAdmin"`
	IsBusiness      bool               `json:"isBusiness"`
	IsUser          bool               `json:"isUser"`
	TempAdminExpiry *time.Time         `json:"tempAdminExpiry,omitempty"`
	OAuth           *oauthLinkResponse `json:"oauth,omitempty"`
	HasPassword     bool               `json:"hasPassword"`
	LastLogin       *time.Time         `json:"lastLogin,omitempty"`
	IsOnline        bool               `json:"isOnline"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type oauthLinkResponse struct {
	GoogleID    string `json:"googleId"`
	GoogleEmail string `json:"googleEmail,omitempty"`
}

func toUserResponse(u *entity.User) userResponse {
	r := userResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		AvatarURL:       u.AvatarURL,
		IsAdmin:         u.Roles.IsAdmin,
		IsBusiness:      u.Roles.IsBusiness,
		IsUser:          u.Roles.IsUser,
		TempAdminExpiry: u.TempAdminExpiry,
		HasPassword:     u.HasPassword(),
		LastLogin:       u.LastLogin,
		IsOnline:        u.IsOnline,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.OAuth != nil && u.OAuth.GoogleID != "" {
		r.OAuth = &oauthLinkResponse{GoogleID: u.OAuth.GoogleID, GoogleEmail: u.OAuth.GoogleEmail}
	}
	return r
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type authResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func toAuthResponse(res *application.AuthResult) authResponse {
	return authResponse{User: toUserResponse(res.User), Token: res.Token, ExpiresAt: res.ExpiresAt}
}

// requestContext carries the caller's IP and user agent into the services for audit logging.
func requestContext(c *gin.Context) context.Context {
	ip := c.GetString(middleware.CtxRealIP)
	if ip == "" {
		ip = c.ClientIP()
	}
	return application.WithRequestMeta(c.Request.Context(), application.RequestMeta{
		IP:        ip,
		UserAgent: c.GetHeader("User-Agent"),
	})
}

// bindJSON binds the body and writes the 400 envelope on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

// writeError maps application errors onto the response envelope. Causes are logged,
// never returned to the client.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var ae *application.Error
	if !errors.As(err, &ae) {
		if logger != nil {
			logger.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
		}
		response.Error[any](c, http.StatusInternalServerError, application.MsgInternal, nil)
		return
	}
	if ae.Kind == application.KindDependency && logger != nil {
		entry := logger.WithField("path", c.FullPath())
		if ae.Err != nil {
			entry = entry.WithError(ae.Err)
		}
		entry.Error(ae.Message)
	}
	response.Error[any](c, ae.Kind.HTTPStatus(), ae.Message, nil)
}
