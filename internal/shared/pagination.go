package shared

// Pagination normalizes page/per_page query input. Listings cap per_page at
// 200 rows.
type Pagination struct {
	Page    int
	PerPage int
}

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

// NewPagination clamps raw page/per_page values into valid bounds.
func NewPagination(page, perPage int) Pagination {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
