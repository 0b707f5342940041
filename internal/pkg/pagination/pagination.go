// Package pagination implements the page-windowing math shared by every
// listing endpoint. Paginate is a pure function of (page, size, total).
package pagination

import "strconv"

// PageRef is a 1-based page number that serializes to false when absent,
// matching the listing envelope the frontend consumes.
type PageRef int

func (p PageRef) MarshalJSON() ([]byte, error) {
	if p <= 0 {
		return []byte("false"), nil
	}
	return []byte(strconv.Itoa(int(p))), nil
}

// Page describes one window over an ordered result set.
type Page struct {
	FirstPage    int     `json:"first_page"`
	PreviousPage PageRef `json:"previous_page"`
	CurrentPage  int     `json:"current_page"`
	NextPage     PageRef `json:"next_page"`
	LastPage     int     `json:"last_page"`
	TotalRecords int64   `json:"total_records"`
}

// Clamp normalizes a requested page number to a minimum of 1.
func Clamp(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset computes the row offset for a clamped page number.
func Offset(page, size int) int {
	return (Clamp(page) - 1) * size
}

// Paginate computes the page window for a clamped page number, a fixed
// page size and a total record count. The last page is never below 1, so
// an empty result set still reports page 1 as both first and last.
func Paginate(page, size int, total int64) Page {
	page = Clamp(page)

	last := int((total + int64(size) - 1) / int64(size))
	if last < 1 {
		last = 1
	}

	var prev, next PageRef
	if page > 1 {
		prev = PageRef(page - 1)
	}
	if page < last {
		next = PageRef(page + 1)
	}

	return Page{
		FirstPage:    1,
		PreviousPage: prev,
		CurrentPage:  page,
		NextPage:     next,
		LastPage:     last,
		TotalRecords: total,
	}
}
