package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/application"
	"github.com/oksasatya/shopdesk-api/internal/interface/middleware"
	"github.com/oksasatya/shopdesk-api/pkg/response"
)

type AdminHandler struct {
	Admin  *application.AdminService
	Logger *logrus.Logger
}

func NewAdminHandler(admin *application.AdminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Admin: admin, Logger: logger}
}

type userIDParam struct {
	ID string `uri:"id" binding:"required,objectid"`
}

type adminCreateRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=256"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,pwd"`
	Phone      string `json:"phone" binding:"omitempty,mobile"`
	IsAdmin    bool   `json:"isAdmin"`
	IsBusiness bool   `json:"isBusiness"`
	IsUser     *bool  `json:"isUser"`
}

type adminUpdateRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=2,max=256"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone" binding:"omitempty,mobile"`
	IsAdmin    *bool   `json:"isAdmin"`
	IsBusiness *bool   `json:"isBusiness"`
	IsUser     *bool   `json:"isUser"`
}

type tempAdminRequest struct {
	Duration string `json:"duration" binding:"required,tempadmin"`
}

func (h *AdminHandler) bindID(c *gin.Context) (string, bool) {
	var p userIDParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", nil)
		return "", false
	}
	return p.ID, true
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

// List GET /api/admin/users?page=&limit=
func (h *AdminHandler) List(c *gin.Context) {
	users, page, err := h.Admin.List(requestContext(c), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "users", page)
}

// Search GET /api/admin/users/search?q=&size=
func (h *AdminHandler) Search(c *gin.Context) {
	hits, err := h.Admin.Search(requestContext(c), c.Query("q"), queryInt(c, "size"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// Get GET /api/admin/users/:id
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	u, err := h.Admin.Get(requestContext(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

// Create POST /api/admin/users
func (h *AdminHandler) Create(c *gin.Context) {
	var req adminCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	isUser := true
	if req.IsUser != nil {
		isUser = *req.IsUser
	}
	u, err := h.Admin.Create(requestContext(c), application.AdminCreateInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
		IsAdmin:    req.IsAdmin,
		IsBusiness: req.IsBusiness,
		IsUser:     isUser,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user created", nil)
}

// Update PUT /api/admin/users/:id
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req adminUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Admin.Update(requestContext(c), id, application.AdminUpdateInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		IsAdmin:    req.IsAdmin,
		IsBusiness: req.IsBusiness,
		IsUser:     req.IsUser,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

// Delete DELETE /api/admin/users/:id
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	if err := h.Admin.Delete(requestContext(c), c.GetString(middleware.CtxUserID), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "user deleted", nil)
}

// PromoteToBusiness PATCH /api/admin/users/:id/business
func (h *AdminHandler) PromoteToBusiness(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	u, err := h.Admin.PromoteToBusiness(requestContext(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user promoted to business", nil)
}

// GrantTemporaryAdmin PATCH /api/admin/users/:id/temp-admin
func (h *AdminHandler) GrantTemporaryAdmin(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req tempAdminRequest
	if !bindJSON(c, &req) {
		return
	}
	exp, u, err := h.Admin.GrantTemporaryAdmin(requestContext(c), id, req.Duration)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "temporary admin granted", gin.H{"expiresAt": exp})
}
