package domain

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageQuery is a 1-based page request
type PageQuery struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Normalize fills in defaults and caps the page size
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

// Offset is the number of rows to skip for this page
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Size
}

// PaginationResult is one page of a listing
type PaginationResult[T any] struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Data       []T `json:"data"`
}

// NewPaginationResult builds a page from the rows and the total row count
func NewPaginationResult[T any](q PageQuery, total int, data []T) PaginationResult[T] {
	totalPages := 0
	if q.Size > 0 {
		totalPages = (total + q.Size - 1) / q.Size
	}
	if data == nil {
		data = []T{}
	}
	return PaginationResult[T]{
		Page:       q.Page,
		Size:       q.Size,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}
