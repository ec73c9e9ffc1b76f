package util

import "math"

const (
	DefaultPerPage = 10
	MaxPerPage     = 100

	// MaxPage keeps (page-1)*size within int.
	MaxPage = math.MaxInt / MaxPerPage
)

// Calculate normalises page/size and returns the row offset and limit.
func Calculate(page, size int) (from, limit int) {
	page, size = Normalize(page, size)
	return (page - 1) * size, size
}

func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 || size > MaxPerPage {
		size = DefaultPerPage
	}
	return page, size
}

type Page[T any] struct {
	CurrentPage int   `json:"currentPage"`
	PerPage     int   `json:"perPage"`
	Total       int64 `json:"total"`
	Data        []T   `json:"data"`
}

func NewPage[T any](page, size int, total int64, data []T) Page[T] {
	page, size = Normalize(page, size)
	if data == nil {
		data = []T{}
	}
	return Page[T]{CurrentPage: page, PerPage: size, Total: total, Data: data}
}
