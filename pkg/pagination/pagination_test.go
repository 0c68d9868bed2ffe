package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"page=0&limit=-4", Params{Page: 1, Limit: 20, Offset: 0}},
		{"limit=500", Params{Page: 1, Limit: MaxLimit, Offset: 0}},
		{"per_page=5&page=2", Params{Page: 2, Limit: 5, Offset: 5}},
		{"offset=25&limit=10&page=9", Params{Page: 3, Limit: 10, Offset: 25}},
		{"offset=-1&page=2", Params{Page: 2, Limit: 20, Offset: 20}},
		{"page=abc", Params{Page: 1, Limit: 20, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, parseQuery(tt.query))
		})
	}
}

func TestWrap(t *testing.T) {
	page := Params{Page: 2, Limit: 10, Offset: 10}.Wrap([]string{"a"}, 11)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
}
