package shared

// MaxPageSize caps the rows returned by one listing page
const MaxPageSize = 100

// Filter carries paging and ordering for listings
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns the first page of 20, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 20, OrderBy: "created_at", OrderDir: "desc"}
}

// Paged applies a requested page and size. Non-positive values keep the
// current ones; sizes above MaxPageSize are capped.
func (f Filter) Paged(page, size int) Filter {
	if page > 0 {
		f.Page = page
	}
	if size > 0 {
		f.PageSize = min(size, MaxPageSize)
	}
	return f
}

// Offset returns the row offset of the page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
