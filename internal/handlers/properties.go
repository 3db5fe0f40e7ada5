package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// PropertyHandler exposes the public listing endpoints.
type PropertyHandler struct {
	properties *services.PropertyService
	effects    *services.EffectRunner
}

// NewPropertyHandler constructs the public property handler.
func NewPropertyHandler(properties *services.PropertyService, effects *services.EffectRunner) *PropertyHandler {
	return &PropertyHandler{properties: properties, effects: effects}
}

// Search lists available properties with filters, sorting, and pagination.
// Only available listings are visible here regardless of query parameters.
func (h *PropertyHandler) Search(c *gin.Context) {
	input := services.SearchInput{
		Location:   c.Query("location"),
		Type:       c.Query("type"),
		Bedrooms:   parseIntQueryPtr(c, "bedrooms"),
		MinPrice:   parseFloatQuery(c, "minPrice"),
		MaxPrice:   parseFloatQuery(c, "maxPrice"),
		WithinDays: recencyWindowQuery(c),
		Sort:       c.Query("sort"),
		Seed:       parseUintQuery(c, "seed", 1),
		Page:       parseIntQuery(c, "page", 1),
		Limit:      parseIntQuery(c, "limit", 0),
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

// Get returns a single listing and counts the view.
func (h *PropertyHandler) Get(c *gin.Context) {
	id := c.Param("id")

	property, err := h.properties.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.properties.IncrementViews(c.Request.Context(), id); err == nil {
		property.Views++
	}

	response.Success(c, http.StatusOK, property)
}

type addReviewRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// AddReview attaches a review to a listing.
func (h *PropertyHandler) AddReview(c *gin.Context) {
	req, err := bindAndValidate[addReviewRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	input := services.AddReviewInput{
		PropertyID:   c.Param("id"),
		ReviewerName: req.Name,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}
	if userID := currentUserID(c); userID != "" {
		input.ReviewerID = &userID
	}

	review, effects, err := h.properties.AddReview(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, review)
}
