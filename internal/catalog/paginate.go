package catalog

import "coinoswap_admin/internal/domain"

// DefaultPageSize is the number of rows per client-side page.
const DefaultPageSize = 10

// Paginate returns the 1-based page of items and its pagination block.
// Pages outside [1, totalPages] yield an empty slice; the bounds are checked
// before any offset is computed so huge page numbers cannot overflow.
func Paginate[T any](items []T, page, size int) ([]T, domain.Pagination) {
	if size <= 0 {
		size = DefaultPageSize
	}
	n := len(items)
	totalPages := max(1, (n+size-1)/size)

	p := domain.Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalCount:      n,
		Limit:           size,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}

	if page < 1 || page > totalPages {
		return []T{}, p
	}
	start := (page - 1) * size
	if start >= n {
		return []T{}, p
	}
	end := min(start+size, n)
	return items[start:end], p
}
