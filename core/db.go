package core

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxPage      = math.MaxInt32
	MaxLimit     = 100
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Pagination is a 1-based page window over a result set.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination parses raw query values; absent, non-numeric or non-positive values fall back to defaults.
// Values above MaxPage / MaxLimit are clamped.
func NewPagination(page, limit string) Pagination {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Page = min(n, MaxPage)
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

// Skip is the number of records before the page. It saturates instead of overflowing.
func (p Pagination) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	pages, limit := int64(p.Page-1), int64(p.Limit)
	if pages > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return pages * limit
}

func (p Pagination) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}
