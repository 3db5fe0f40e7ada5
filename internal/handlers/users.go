package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// UserHandler exposes the admin account-management endpoints.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs the admin user handler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns a page of accounts.
func (h *UserHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 0)

	users, total, err := h.users.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, users, &response.Meta{
		Page:    page,
		PerPage: len(users),
		Total:   total,
	})
}

type adminCreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Create provisions a new account.
func (h *UserHandler) Create(c *gin.Context) {
	req, err := bindAndValidate[adminCreateUserRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), services.AdminCreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// Get returns a single account.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type adminUpdateUserRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"is_active"`
	Verified *bool   `json:"verified"`
}

// Update applies role and status changes.
func (h *UserHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[adminUpdateUserRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.AdminUpdate(c.Request.Context(), c.Param("id"), services.AdminUpdateUserInput{
		Role:     req.Role,
		IsActive: req.IsActive,
		Verified: req.Verified,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// Delete removes an account. Admins cannot delete themselves.
func (h *UserHandler) Delete(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == currentUserID(c) {
		response.Error(c, apperrors.NewBadRequest("cannot delete your own account"))
		return
	}

	if err := h.users.Delete(c.Request.Context(), targetID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "user deleted"})
}
