package pagination

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any paged query can request.
	MaxPageSize = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize enforces the configured defaults and maximums.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Limit returns the row limit for the normalized params.
func (p Params) Limit() int {
	return p.Normalize().PageSize
}

// Page wraps a result slice with its paging metadata.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	PageNumber int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage builds the response envelope for one page of results.
func NewPage[T any](items []T, total int64, params Params) Page[T] {
	n := params.Normalize()
	totalPages := 0
	if n.PageSize > 0 {
		totalPages = int((total + int64(n.PageSize) - 1) / int64(n.PageSize))
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		PageNumber: n.Page,
		PageSize:   n.PageSize,
		TotalPages: totalPages,
	}
}
