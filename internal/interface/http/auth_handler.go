package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/response"
)

type AuthHandler struct {
	Auth   *application.AuthService
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, users *application.UserService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Users: users, Logger: logger}
}

type registerRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=256"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,pwd"`
	Phone      string `json:"phone" binding:"omitempty,mobile"`
	IsBusiness bool   `json:"isBusiness"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

type refreshRequest struct {
	Token string `json:"token"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.Register(requestContext(c), application.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
		IsBusiness: req.IsBusiness,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toAuthResponse(res), "registered", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Auth.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthResponse(res), "login successful", nil)
}

// Logout POST /api/auth/logout. Always succeeds; presence is cleared when the caller is known.
func (h *AuthHandler) Logout(c *gin.Context) {
	if uid := c.GetString(middleware.CtxUserID); uid != "" {
		h.Auth.Logout(requestContext(c), uid)
	}
	response.Success[any](c, http.StatusOK, gin.H{"loggedOut": true}, "logged out", nil)
}

// Refresh POST /api/auth/refresh. The old token comes from the Authorization header or the
// JSON body and may be expired.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		token = req.Token
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, application.MsgUnauthorized, nil)
		return
	}
	res, err := h.Auth.Refresh(requestContext(c), token)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthResponse(res), "token refreshed", nil)
}

// ForgotPassword POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Auth.ForgotPassword(requestContext(c), req.Email)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, msg, nil)
}

// ResetPassword POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Auth.ResetPassword(requestContext(c), req.Token, req.Password); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password has been reset", nil)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.Users.Profile(requestContext(c), c.GetString(middleware.CtxUserID))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "current user", nil)
}
