package listing

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Total       int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// TotalPages returns max(1, ceil(total/pageSize)).
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}

	return (total + pageSize - 1) / pageSize
}

// NewPagination builds a Pagination, recomputing TotalPages.
func NewPagination(total, page, pageSize int) Pagination {
	total = max(total, 0)

	return Pagination{
		Total:       total,
		TotalPages:  TotalPages(total, pageSize),
		CurrentPage: max(page, 1),
		PageSize:    pageSize,
	}
}

// Bounds returns the [start, end) slice indexes of the current page over n rows.
func (p Pagination) Bounds(n int) (int, int) {
	if p.PageSize <= 0 {
		return 0, n
	}

	start := min((max(p.CurrentPage, 1)-1)*p.PageSize, n)
	end := min(start+p.PageSize, n)

	return start, end
}

// OutOfRange reports whether the current page lies beyond the last page, in
// which case the page should be clamped. An empty result has one page.
func (p Pagination) OutOfRange() bool {
	return p.CurrentPage > p.TotalPages
}
