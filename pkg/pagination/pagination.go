// Package pagination reads page windows from list requests.
package pagination

import (
	"strconv"

	"sampletrack/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page window.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the query string. per_page is accepted as
// an alias of limit, and an explicit offset wins over page.
func Parse(c *gin.Context) Params {
	limit := intQuery(c, "limit", 0)
	if limit == 0 {
		limit = intQuery(c, "per_page", DefaultLimit)
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	if raw, ok := c.GetQuery("offset"); ok {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			return Params{Page: offset/limit + 1, Limit: limit, Offset: offset}
		}
	}

	page := intQuery(c, "page", DefaultPage)
	if page < 1 {
		page = DefaultPage
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Wrap builds the list payload for items fetched with p.
func (p Params) Wrap(items interface{}, total int64) response.Page {
	return response.Page{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
