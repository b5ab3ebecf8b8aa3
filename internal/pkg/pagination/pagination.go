package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 50
)

// Query holds parsed pagination parameters.
type Query struct {
	Page    int
	PerPage int
}

// Normalize clamps q into the accepted range.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

// FromContext extracts and validates pagination params from the request.
func FromContext(c *gin.Context) Query {
	return Query{
		Page:    parseIntOr(c.Query("page"), DefaultPage),
		PerPage: parseIntOr(c.Query("per_page"), DefaultPerPage),
	}.Normalize()
}

// Paginate applies limit/offset to a GORM query and returns the pagination metadata.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	q = q.Normalize()
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	offset := (q.Page - 1) * q.PerPage
	if err := db.Offset(offset).Limit(q.PerPage).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   int((total + int64(q.PerPage) - 1) / int64(q.PerPage)),
		PerPage:     q.PerPage,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
