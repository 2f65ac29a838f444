package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
	"github.com/oksasatya/shopdesk-api/pkg/response"
)

// Gin context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxUserName  = "userName"
	CtxUserEmail = "userEmail"
	CtxRoles     = "roles"
)

// BearerToken returns the token from an "Authorization: Bearer <token>" header, or "".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Auth requires a valid session token whose user still exists. Missing, invalid and
// expired tokens and vanished users all get the same 401 body.
func Auth(roles *application.RoleService, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := authenticate(c, roles, jwt)
		if err != nil {
			var ae *application.Error
			if errors.As(err, &ae) && ae.Kind == application.KindDependency {
				response.Abort(c, http.StatusInternalServerError, application.MsgInternal, nil)
				return
			}
			response.Abort(c, http.StatusUnauthorized, application.MsgUnauthorized, nil)
			return
		}
		setIdentity(c, u)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and never rejects.
func OptionalAuth(roles *application.RoleService, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if BearerToken(c) != "" {
			if u, err := authenticate(c, roles, jwt); err == nil {
				setIdentity(c, u)
			}
		}
		c.Next()
	}
}

var errNoToken = errors.New("missing bearer token")

func authenticate(c *gin.Context, roles *application.RoleService, jwt *helpers.JWTManager) (*entity.User, error) {
	token := BearerToken(c)
	if token == "" {
		return nil, errNoToken
	}
	claims, err := jwt.Verify(token)
	if err != nil {
		return nil, err
	}
	return roles.Identity(c.Request.Context(), claims.UserID)
}

func setIdentity(c *gin.Context, u *entity.User) {
	c.Set(CtxUserID, u.ID)
	c.Set(CtxUserName, u.Name)
	c.Set(CtxUserEmail, u.Email)
	c.Set(CtxRoles, u.Roles)
}

// RolesFrom returns the resolved roles set by Auth.
func RolesFrom(c *gin.Context) (entity.RoleFlags, bool) {
	v, ok := c.Get(CtxRoles)
	if !ok {
		return entity.RoleFlags{}, false
	}
	r, ok := v.(entity.RoleFlags)
	return r, ok
}

// RequireRoles passes when the caller holds at least one of roles.
// It must run after Auth.
func RequireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted, ok := RolesFrom(c)
		if !ok || c.GetString(CtxUserID) == "" {
			response.Abort(c, http.StatusUnauthorized, application.MsgUnauthorized, nil)
			return
		}
		if !granted.HasAny(roles...) {
			response.Abort(c, http.StatusForbidden, application.MsgForbidden, nil)
			return
		}
		c.Next()
	}
}
