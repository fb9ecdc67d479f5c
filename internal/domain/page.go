package domain

// PaginationParams carries page/limit values from the HTTP layer to the service layer.
// Page is 1-indexed. Limit is capped at 200 by NewPaginationParams.
type PaginationParams struct {
	// Page is the current page number, starting at 1.
	Page int
	// Limit is the maximum number of items to return.
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional HTTP query params.
// Nil pointers fall back to sane defaults (page=1, limit=50).
// The limit is capped at 200; schedules are reconciled in memory.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 50}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = *limit
		if p.Limit > 200 {
			p.Limit = 200
		}
	}
	return p
}

// Offset returns the zero-based index of the first item on the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginate returns the page of items selected by p, preserving order.
// Out-of-range pages yield an empty, non-nil slice. The page is compared
// against the page count before any offset is computed, so a huge page
// number cannot overflow.
func Paginate[T any](items []T, p PaginationParams) []T {
	if p.Limit < 1 || p.Page < 1 {
		return []T{}
	}
	pages := (len(items) + p.Limit - 1) / p.Limit
	if p.Page > pages {
		return []T{}
	}
	start := p.Offset()
	end := min(start+p.Limit, len(items))
	return items[start:end]
}
