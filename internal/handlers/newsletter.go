package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// NewsletterHandler exposes the mailing-list endpoints.
type NewsletterHandler struct {
	contact *services.ContactService
	effects *services.EffectRunner
}

// NewNewsletterHandler constructs the newsletter handler.
func NewNewsletterHandler(contact *services.ContactService, effects *services.EffectRunner) *NewsletterHandler {
	return &NewsletterHandler{contact: contact, effects: effects}
}

type newsletterRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Subscribe adds an address to the newsletter list.
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	req, err := bindAndValidate[newsletterRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	subscriber, effects, err := h.contact.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, subscriber)
}

// Unsubscribe removes an address from the newsletter list.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	req, err := bindAndValidate[newsletterRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.contact.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "unsubscribed"})
}
