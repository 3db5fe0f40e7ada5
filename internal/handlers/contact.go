package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// ContactHandler exposes the contact form endpoints.
type ContactHandler struct {
	contact *services.ContactService
	effects *services.EffectRunner
}

// NewContactHandler constructs the contact handler.
func NewContactHandler(contact *services.ContactService, effects *services.EffectRunner) *ContactHandler {
	return &ContactHandler{contact: contact, effects: effects}
}

type contactRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=100"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone" validate:"omitempty,max=32"`
	Message    string  `json:"message" validate:"required,min=5,max=5000"`
	PropertyID *string `json:"property_id" validate:"omitempty,uuid"`
}

// Submit records a contact inquiry. Works for both guests and logged-in
// users.
func (h *ContactHandler) Submit(c *gin.Context) {
	req, err := bindAndValidate[contactRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	input := services.ContactInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
		PropertyID: req.PropertyID,
	}
	if userID := currentUserID(c); userID != "" {
		input.UserID = &userID
	}

	message, effects, err := h.contact.Submit(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, message)
}

// List returns a page of inquiries for admins.
func (h *ContactHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 0)

	messages, total, err := h.contact.ListMessages(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, messages, &response.Meta{
		Page:    page,
		PerPage: len(messages),
		Total:   total,
	})
}
