package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// ProfileHandler exposes the self-service account endpoints.
type ProfileHandler struct {
	users *services.UserService
}

// NewProfileHandler constructs the profile handler.
func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Get returns the caller's account.
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone  *string `json:"phone" validate:"omitempty,max=32"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
}

// Update applies profile changes.
func (h *ProfileHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateProfileRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUserID(c), services.UpdateProfileInput{
		Name:   req.Name,
		Phone:  req.Phone,
		Avatar: req.Avatar,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangePassword replaces the caller's password.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	req, err := bindAndValidate[changePasswordRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), currentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password updated"})
}
