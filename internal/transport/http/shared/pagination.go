package shared

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePagination reads page/pageSize query parameters, clamping them to
// sane bounds.
func ParsePagination(r *http.Request) Pagination {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

type Paginated struct {
	Items    any `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func NewPaginated(items any, total int, p Pagination) Paginated {
	return Paginated{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}
