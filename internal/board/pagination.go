package board

// ItemsPerPage is fixed for the board table.
const ItemsPerPage = 15

// TotalPages is ceil(n/perPage), zero for an empty list.
func TotalPages(n, perPage int) int {
	if n <= 0 || perPage <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// Bounds returns the half-open index range of a 1-based page.
func Bounds(page, perPage int) (start, end int) {
	start = (page - 1) * perPage
	return start, start + perPage
}

// Slice returns the visible part of items. Pages past the end yield nothing.
func Slice[T any](items []T, page, perPage int) []T {
	start, end := Bounds(page, perPage)
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return nil
	}
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func ShowControls(totalPages int) bool {
	return totalPages > 1
}

func PageNumbers(totalPages int) []int {
	pages := make([]int, totalPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// Pager holds the current 1-based page. It is not clamped when the list
// shrinks, so a page past the end renders empty until the user navigates.
type Pager struct {
	Current int
}

func NewPager() Pager {
	return Pager{Current: 1}
}

func (p *Pager) Previous() {
	p.Current = max(1, p.Current-1)
}

func (p *Pager) Next(totalPages int) {
	p.Current = max(1, min(totalPages, p.Current+1))
}

// Goto jumps to n without checking it against the page count.
func (p *Pager) Goto(n int) {
	if n < 1 {
		return
	}
	p.Current = n
}
