package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/studentgrades/internal/app/models/dto"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	DefaultPage     = 1 // Default page is 1-based
)

// ParsePaginationParams extracts page and size from the query string. Invalid
// values fall back to the defaults.
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
// page should be the 1-based page number.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := 1
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(size)))
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// CalculateSliceIndices returns the [start, end) window of a page over totalItems
func CalculateSliceIndices(page, size, totalItems int) (start, end int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	start = (page - 1) * size
	if start > totalItems {
		start = totalItems
	}
	end = start + size
	if end > totalItems {
		end = totalItems
	}
	return start, end
}

// Paginate cuts one page out of an ordered list
func Paginate[T any](items []T, page, size int) dto.PageResponse {
	start, end := CalculateSliceIndices(page, size, len(items))
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	window := items[start:end]
	if window == nil {
		window = []T{}
	}
	return dto.PageResponse{
		Items:      window,
		Pagination: NewPaginationInfo(int64(len(items)), page, size),
	}
}
