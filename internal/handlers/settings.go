package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// SettingsHandler exposes the site settings endpoints.
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler constructs the settings handler.
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get returns the current site settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, settings)
}

type updateSettingsRequest struct {
	SiteName        *string `json:"site_name" validate:"omitempty,min=1,max=100"`
	ContactEmail    *string `json:"contact_email" validate:"omitempty,email"`
	MaintenanceMode *bool   `json:"maintenance_mode"`
	FeaturedLimit   *int    `json:"featured_limit" validate:"omitempty,min=1,max=100"`
}

// Update applies a partial settings change.
func (h *SettingsHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateSettingsRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), services.UpdateSettingsInput{
		SiteName:        req.SiteName,
		ContactEmail:    req.ContactEmail,
		MaintenanceMode: req.MaintenanceMode,
		FeaturedLimit:   req.FeaturedLimit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, settings)
}
