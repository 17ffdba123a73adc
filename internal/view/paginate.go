package view

// DefaultPageSize is the number of rows per history page.
const DefaultPageSize = 7

// Page is one slice of an ordered sequence.
type Page[T any] struct {
	Items      []T
	Page       int // requested page, 1-based
	PageSize   int
	TotalPages int
	Total      int // length of the whole sequence
}

// Paginate returns page number page (1-based) of items.
//
// TotalPages is ceil(len(items)/pageSize), so an empty input has zero
// pages. A page outside [1, TotalPages] yields no items; callers clamp with
// ClampPage. A non-positive pageSize falls back to DefaultPageSize.
func Paginate[T any](items []T, pageSize, page int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
		Total:      total,
	}
	if page < 1 || page > p.TotalPages {
		return p
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	p.Items = items[start:end]
	return p
}

// ClampPage clamps page into [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	return max(1, min(page, max(1, totalPages)))
}

// First is the 1-based position of the first item on the page, 0 when empty.
func (p Page[T]) First() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Page-1)*p.PageSize + 1
}

// Last is the 1-based position of the last item on the page, 0 when empty.
func (p Page[T]) Last() int {
	if len(p.Items) == 0 {
		return 0
	}
	return min(p.Page*p.PageSize, p.Total)
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// Numbers lists every page number, for the pager links.
func (p Page[T]) Numbers() []int {
	nums := make([]int, p.TotalPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}
