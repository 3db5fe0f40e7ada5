package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation.
// On failure it writes nothing; the caller renders the returned error.
func bindAndValidate[T any](c *gin.Context) (*T, error) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, apperrors.NewBadRequest("invalid request body")
	}

	if err := validator.ValidateStruct(&payload); err != nil {
		var failures validator.ValidationErrors
		if errors.As(err, &failures) {
			return nil, apperrors.NewBadRequest(failures.Error())
		}
		return nil, apperrors.NewBadRequest("validation failed")
	}

	return &payload, nil
}

// recencyWindowQuery reads the listing-age filter in days. The public
// parameter is "time"; "withinDays" is accepted as an alias.
func recencyWindowQuery(c *gin.Context) int {
	if days := parseIntQuery(c, "time", 0); days > 0 {
		return days
	}
	return parseIntQuery(c, "withinDays", 0)
}

// parseIntQuery reads an integer query parameter, falling back to def when
// the parameter is absent or malformed.
func parseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}

// parseFloatQuery reads an optional float query parameter. Malformed values
// are treated as absent.
func parseFloatQuery(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// parseIntQueryPtr reads an optional integer query parameter. Malformed
// values are treated as absent.
func parseIntQueryPtr(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

// parseBoolQueryPtr reads an optional boolean query parameter.
func parseBoolQueryPtr(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// parseUintQuery reads an unsigned integer query parameter, falling back to
// def when absent or malformed.
func parseUintQuery(c *gin.Context, name string, def uint64) uint64 {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def
	}
	return value
}
