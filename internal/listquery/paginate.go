package listquery

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T
	TotalPages int
	StartIndex int
	// EndIndex is exclusive.
	EndIndex int
}

// Paginate slices items for a 1-based page. TotalPages is at least 1 even
// for an empty list. The page is not clamped here: callers clamp via
// ListState, and an out-of-range page yields an empty slice rather than an
// error.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start < 0 || start >= len(items) {
		return Page[T]{Items: []T{}, TotalPages: totalPages, StartIndex: start, EndIndex: start}
	}

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Items:      items[start:end],
		TotalPages: totalPages,
		StartIndex: start,
		EndIndex:   end,
	}
}

// ListState is the page/pageSize pair a list view owns.
type ListState struct {
	Page     int
	PageSize int
}

func NewListState(pageSize int) ListState {
	if pageSize < 1 {
		pageSize = 10
	}
	return ListState{Page: 1, PageSize: pageSize}
}

// SetPageSize changes the page size and resets to the first page. The reset
// is part of the contract, not incidental.
func (s *ListState) SetPageSize(size int) {
	if size < 1 {
		size = 1
	}
	s.PageSize = size
	s.Page = 1
}

// SetPage moves to page p clamped to [1, totalPages].
func (s *ListState) SetPage(p, totalPages int) {
	if totalPages < 1 {
		totalPages = 1
	}
	if p < 1 {
		p = 1
	}
	if p > totalPages {
		p = totalPages
	}
	s.Page = p
}
