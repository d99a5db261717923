package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"
)

const (
	// DefaultPageLimit applies when a list request has no limit.
	DefaultPageLimit = 50
	// MaxPageLimit caps a page so one request cannot pull a month of fiscal log.
	MaxPageLimit = 100
)

// Page is the offset window of a list request.
type Page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Validate checks the window bounds.
func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Offset, validation.Min(0)),
		validation.Field(&p.Limit, validation.Required, validation.Min(1), validation.Max(MaxPageLimit)),
	)
}

// ParsePage reads offset and limit from the query string. Missing values fall back
// to offset 0 and DefaultPageLimit.
func ParsePage(c *gin.Context) (Page, error) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return Page{}, err
	}
	limit, err := queryInt(c, "limit", DefaultPageLimit)
	if err != nil {
		return Page{}, err
	}

	page := Page{Offset: offset, Limit: limit}
	if err := page.Validate(); err != nil {
		return Page{}, err
	}
	return page, nil
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer", key)
	}
	return value, nil
}
