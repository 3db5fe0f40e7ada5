package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// AdminPropertyHandler exposes the admin listing endpoints.
type AdminPropertyHandler struct {
	properties *services.PropertyService
}

// NewAdminPropertyHandler constructs the admin property handler.
func NewAdminPropertyHandler(properties *services.PropertyService) *AdminPropertyHandler {
	return &AdminPropertyHandler{properties: properties}
}

// Search lists properties across every status, with optional status and
// featured filters.
func (h *AdminPropertyHandler) Search(c *gin.Context) {
	input := services.SearchInput{
		Location:    c.Query("location"),
		Type:        c.Query("type"),
		Bedrooms:    parseIntQueryPtr(c, "bedrooms"),
		MinPrice:    parseFloatQuery(c, "minPrice"),
		MaxPrice:    parseFloatQuery(c, "maxPrice"),
		WithinDays:  recencyWindowQuery(c),
		Status:      c.Query("status"),
		Featured:    parseBoolQueryPtr(c, "featured"),
		AllStatuses: true,
		Sort:        c.Query("sort"),
		Seed:        parseUintQuery(c, "seed", 1),
		Page:        parseIntQuery(c, "page", 1),
		Limit:       parseIntQuery(c, "limit", 0),
	}

	result, err := h.properties.Search(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Items, &response.Meta{
		Page:       result.Page,
		PerPage:    result.PerPage,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

type createPropertyRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=255"`
	Description string   `json:"description" validate:"omitempty,max=10000"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Location    string   `json:"location" validate:"required,min=2,max=255"`
	Type        string   `json:"type" validate:"required,oneof=sale rent lease land"`
	Status      string   `json:"status" validate:"omitempty,oneof=available sold rented pending"`
	Bedrooms    int      `json:"bedrooms" validate:"omitempty,min=0,max=100"`
	Bathrooms   int      `json:"bathrooms" validate:"omitempty,min=0,max=100"`
	Sqft        int      `json:"sqft" validate:"omitempty,min=0"`
	Latitude    float64  `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   float64  `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Images      []string `json:"images" validate:"required,min=1,dive,url"`
	Featured    bool     `json:"featured"`
}

// Create adds a new listing.
func (h *AdminPropertyHandler) Create(c *gin.Context) {
	req, err := bindAndValidate[createPropertyRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	property, err := h.properties.Create(c.Request.Context(), services.CreatePropertyInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Location:    req.Location,
		Type:        req.Type,
		Status:      req.Status,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Sqft:        req.Sqft,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Images:      req.Images,
		Featured:    req.Featured,
		CreatedByID: currentUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, property)
}

type updatePropertyRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=10000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Location    *string  `json:"location" validate:"omitempty,min=2,max=255"`
	Type        *string  `json:"type" validate:"omitempty,oneof=sale rent lease land"`
	Status      *string  `json:"status" validate:"omitempty,oneof=available sold rented pending"`
	Bedrooms    *int     `json:"bedrooms" validate:"omitempty,min=0,max=100"`
	Bathrooms   *int     `json:"bathrooms" validate:"omitempty,min=0,max=100"`
	Sqft        *int     `json:"sqft" validate:"omitempty,min=0"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Images      []string `json:"images" validate:"omitempty,min=1,dive,url"`
	Featured    *bool    `json:"featured"`
}

// Update applies a partial update to a listing.
func (h *AdminPropertyHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updatePropertyRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	property, err := h.properties.Update(c.Request.Context(), c.Param("id"), services.UpdatePropertyInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Location:    req.Location,
		Type:        req.Type,
		Status:      req.Status,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Sqft:        req.Sqft,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Images:      req.Images,
		Featured:    req.Featured,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, property)
}

// Delete removes a listing.
func (h *AdminPropertyHandler) Delete(c *gin.Context) {
	if err := h.properties.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "property deleted"})
}
