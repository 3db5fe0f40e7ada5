package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/models"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/metrics"
)

// Sort orders accepted by the search endpoint. Unknown values fall back to
// SortDefault.
const (
	SortDefault        = "default"
	SortPriceLowToHigh = "priceLowToHigh"
	SortPriceHighToLow = "priceHighToLow"
	SortOldest         = "oldest"
)

// rankModulus bounds the per-seed shuffle rank so distinct seeds produce
// distinct permutations without overflow concerns in comparisons.
const rankModulus = 1_000_000

// SearchInput captures the filters, ordering, and pagination of a listing
// search. Pointer fields distinguish "absent" from zero values.
type SearchInput struct {
	Location string
	Type     string
	Bedrooms *int
	MinPrice *float64
	MaxPrice *float64

	// WithinDays restricts results to listings created in the trailing
	// window. Zero or negative means no window.
	WithinDays int

	// Status and Featured are honoured only when AllStatuses is set; public
	// searches are pinned to available listings.
	Status      string
	Featured    *bool
	AllStatuses bool

	Sort string
	Seed uint64

	Page  int
	Limit int
}

// SearchResult is a single page of listings plus pagination totals. Totals
// always reflect the full filtered set regardless of the requested page.
type SearchResult struct {
	Items      []models.Property `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

// CreatePropertyInput carries the fields for a new listing.
type CreatePropertyInput struct {
	Title       string
	Description string
	Price       float64
	Location    string
	Type        string
	Status      string
	Bedrooms    int
	Bathrooms   int
	Sqft        int
	Latitude    float64
	Longitude   float64
	Images      []string
	Featured    bool
	CreatedByID string
}

// UpdatePropertyInput carries a partial update; nil fields are untouched.
type UpdatePropertyInput struct {
	Title       *string
	Description *string
	Price       *float64
	Location    *string
	Type        *string
	Status      *string
	Bedrooms    *int
	Bathrooms   *int
	Sqft        *int
	Latitude    *float64
	Longitude   *float64
	Images      []string
	Featured    *bool
}

// AddReviewInput carries a new property review.
type AddReviewInput struct {
	PropertyID   string
	ReviewerID   *string
	ReviewerName string
	Rating       int
	Comment      string
}

// PropertyService implements listing CRUD and the search engine.
type PropertyService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPropertyService constructs a property service backed by the provided database.
func NewPropertyService(db *gorm.DB) (*PropertyService, error) {
	if db == nil {
		return nil, errors.New("property service: db is required")
	}
	return &PropertyService{db: db, now: time.Now}, nil
}

// Search returns a page of listings matching the input. Public callers get
// available listings only; admin callers set AllStatuses to filter by any
// status or by the featured flag.
func (s *PropertyService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	page := normalizePage(input.Page)
	limit := normalizeLimit(input.Limit)

	sortOrder := input.Sort
	switch sortOrder {
	case SortPriceLowToHigh, SortPriceHighToLow, SortOldest:
	default:
		sortOrder = SortDefault
	}
	metrics.PropertySearches.WithLabelValues(sortOrder).Inc()

	query := s.filteredQuery(ctx, input)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("property service: count listings: %w", err)
	}

	result := &SearchResult{
		Items:      []models.Property{},
		Total:      total,
		Page:       page,
		PerPage:    limit,
		TotalPages: totalPages(total, limit),
	}
	if total == 0 {
		return result, nil
	}

	var (
		items []models.Property
		err   error
	)
	if sortOrder == SortDefault {
		items, err = s.seededPage(ctx, input, page, limit, input.Seed)
	} else {
		items, err = s.orderedPage(ctx, input, sortOrder, page, limit)
	}
	if err != nil {
		return nil, err
	}

	result.Items = items
	return result, nil
}

// orderedPage pushes deterministic sorts down to the database.
func (s *PropertyService) orderedPage(ctx context.Context, input SearchInput, sortOrder string, page, limit int) ([]models.Property, error) {
	query := s.filteredQuery(ctx, input)

	switch sortOrder {
	case SortPriceLowToHigh:
		query = query.Order("price ASC, created_at DESC, id ASC")
	case SortPriceHighToLow:
		query = query.Order("price DESC, created_at DESC, id ASC")
	case SortOldest:
		query = query.Order("created_at ASC, id ASC")
	}

	var items []models.Property
	if err := query.
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("property service: fetch page: %w", err)
	}
	if items == nil {
		items = []models.Property{}
	}
	return items, nil
}

type rankedListing struct {
	ID        string
	Featured  bool
	CreatedAt time.Time
	rank      uint64
}

// seededPage ranks the full filtered set with the seeded shuffle and fetches
// only the requested page. Featured listings always sort ahead of the rest;
// within each group the rank is a stable function of the listing ID and the
// seed, with newest-first as the tiebreaker.
func (s *PropertyService) seededPage(ctx context.Context, input SearchInput, page, limit int, seed uint64) ([]models.Property, error) {
	if seed == 0 {
		seed = 1
	}

	var rows []rankedListing
	if err := s.filteredQuery(ctx, input).
		Select("id", "featured", "created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("property service: project listings: %w", err)
	}

	for i := range rows {
		rows[i].rank = (fingerprint(rows[i].ID) * seed) % rankModulus
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	start := (page - 1) * limit
	if start >= len(rows) {
		return []models.Property{}, nil
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}

	ids := make([]string, 0, end-start)
	for _, row := range rows[start:end] {
		ids = append(ids, row.ID)
	}

	var items []models.Property
	if err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("property service: fetch page: %w", err)
	}

	// Restore the ranked order lost by the IN query.
	byID := make(map[string]models.Property, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]models.Property, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}

// fingerprint hashes a listing ID into a stable 64-bit value, so the seeded
// order never depends on ID format or insertion time.
func fingerprint(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func (s *PropertyService) filteredQuery(ctx context.Context, input SearchInput) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Property{})

	if location := strings.TrimSpace(input.Location); location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}
	if input.Type != "" && models.ValidPropertyType(input.Type) {
		query = query.Where("type = ?", input.Type)
	}
	if input.Bedrooms != nil && *input.Bedrooms > 0 {
		query = query.Where("bedrooms = ?", *input.Bedrooms)
	}
	if input.MinPrice != nil && *input.MinPrice > 0 {
		query = query.Where("price >= ?", *input.MinPrice)
	}
	if input.MaxPrice != nil && *input.MaxPrice > 0 {
		query = query.Where("price <= ?", *input.MaxPrice)
	}
	if input.WithinDays > 0 {
		cutoff := s.now().AddDate(0, 0, -input.WithinDays)
		query = query.Where("created_at >= ?", cutoff)
	}

	if input.AllStatuses {
		if input.Status != "" && models.ValidPropertyStatus(input.Status) {
			query = query.Where("status = ?", input.Status)
		}
		if input.Featured != nil {
			query = query.Where("featured = ?", *input.Featured)
		}
	} else {
		query = query.Where("status = ?", models.PropertyStatusAvailable)
	}

	return query
}

// GetByID loads a single listing with its reviews.
func (s *PropertyService) GetByID(ctx context.Context, id string) (*models.Property, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrBadRequest
	}

	var property models.Property
	if err := s.db.WithContext(ctx).
		Preload("Reviews").
		First(&property, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("property service: load listing: %w", err)
	}

	return &property, nil
}

// IncrementViews bumps the view counter without racing concurrent readers.
func (s *PropertyService) IncrementViews(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.ErrBadRequest
	}

	result := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		return fmt.Errorf("property service: increment views: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Create persists a new listing.
func (s *PropertyService) Create(ctx context.Context, input CreatePropertyInput) (*models.Property, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if input.Price <= 0 {
		return nil, apperrors.NewBadRequest("price must be positive")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, apperrors.NewBadRequest("location is required")
	}
	if !models.ValidPropertyType(input.Type) {
		return nil, apperrors.NewBadRequest("unknown property type")
	}

	status := input.Status
	if status == "" {
		status = models.PropertyStatusAvailable
	}
	if !models.ValidPropertyStatus(status) {
		return nil, apperrors.NewBadRequest("unknown property status")
	}
	if len(input.Images) == 0 {
		return nil, apperrors.NewBadRequest("at least one image is required")
	}

	property := models.Property{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		Location:    strings.TrimSpace(input.Location),
		Type:        input.Type,
		Status:      status,
		Bedrooms:    input.Bedrooms,
		Bathrooms:   input.Bathrooms,
		Sqft:        input.Sqft,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Featured:    input.Featured,
	}
	if err := property.SetImageURLs(input.Images); err != nil {
		return nil, fmt.Errorf("property service: encode images: %w", err)
	}
	if creator := strings.TrimSpace(input.CreatedByID); creator != "" {
		property.CreatedByID = &creator
	}

	if err := s.db.WithContext(ctx).Create(&property).Error; err != nil {
		return nil, fmt.Errorf("property service: create listing: %w", err)
	}

	return &property, nil
}

// Update applies a partial update to a listing.
func (s *PropertyService) Update(ctx context.Context, id string, input UpdatePropertyInput) (*models.Property, error) {
	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("property service: load listing: %w", err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewBadRequest("title cannot be empty")
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, apperrors.NewBadRequest("price must be positive")
		}
		updates["price"] = *input.Price
	}
	if input.Location != nil {
		if strings.TrimSpace(*input.Location) == "" {
			return nil, apperrors.NewBadRequest("location cannot be empty")
		}
		updates["location"] = strings.TrimSpace(*input.Location)
	}
	if input.Type != nil {
		if !models.ValidPropertyType(*input.Type) {
			return nil, apperrors.NewBadRequest("unknown property type")
		}
		updates["type"] = *input.Type
	}
	if input.Status != nil {
		if !models.ValidPropertyStatus(*input.Status) {
			return nil, apperrors.NewBadRequest("unknown property status")
		}
		updates["status"] = *input.Status
	}
	if input.Bedrooms != nil {
		updates["bedrooms"] = *input.Bedrooms
	}
	if input.Bathrooms != nil {
		updates["bathrooms"] = *input.Bathrooms
	}
	if input.Sqft != nil {
		updates["sqft"] = *input.Sqft
	}
	if input.Latitude != nil {
		updates["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		updates["longitude"] = *input.Longitude
	}
	if input.Featured != nil {
		updates["featured"] = *input.Featured
	}
	if input.Images != nil {
		if len(input.Images) == 0 {
			return nil, apperrors.NewBadRequest("at least one image is required")
		}
		if err := property.SetImageURLs(input.Images); err != nil {
			return nil, fmt.Errorf("property service: encode images: %w", err)
		}
		updates["images"] = property.Images
	}

	if len(updates) == 0 {
		return &property, nil
	}

	if err := s.db.WithContext(ctx).Model(&property).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("property service: update listing: %w", err)
	}

	return &property, nil
}

// Delete removes a listing and its reviews.
func (s *PropertyService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.ErrBadRequest
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("property service: delete reviews: %w", err)
		}

		result := tx.Delete(&models.Property{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("property service: delete listing: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// AddReview attaches a review to a listing and reports it to admins.
func (s *PropertyService) AddReview(ctx context.Context, input AddReviewInput) (*models.Review, []Effect, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, nil, apperrors.NewBadRequest("rating must be between 1 and 5")
	}
	if strings.TrimSpace(input.ReviewerName) == "" {
		return nil, nil, apperrors.NewBadRequest("reviewer name is required")
	}

	property, err := s.GetByID(ctx, input.PropertyID)
	if err != nil {
		return nil, nil, err
	}

	review := models.Review{
		PropertyID:   property.ID,
		ReviewerID:   input.ReviewerID,
		ReviewerName: strings.TrimSpace(input.ReviewerName),
		Rating:       input.Rating,
		Comment:      input.Comment,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, nil, fmt.Errorf("property service: create review: %w", err)
	}

	effects := []Effect{
		NotifyEffect{
			Category: models.NotificationProperty,
			Title:    "New review",
			Message:  fmt.Sprintf("%s rated %q %d/5", review.ReviewerName, property.Title, review.Rating),
			Link:     "/properties/" + property.ID,
			Metadata: map[string]any{"property_id": property.ID, "rating": review.Rating},
		},
	}

	return &review, effects, nil
}
