package services

import (
	"math"

	"github.com/h77compass/first-repo/utils"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*MaxPageSize within int.
	MaxPage = math.MaxInt / MaxPageSize
)

// Page is one window of a listing.
type Page[T any] struct {
	Items      []T              `json:"items"`
	Pagination utils.Pagination `json:"pagination"`
}

// NormalizePage clamps page to 1..MaxPage and pageSize to 1..MaxPageSize,
// using DefaultPageSize when pageSize is not positive.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func newPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Pagination: utils.NewPagination(page, pageSize, total)}
}

func pageOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}
