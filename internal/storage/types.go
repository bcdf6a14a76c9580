package storage

import (
	"math"
	"time"
)

// NoTitle replaces a missing or empty page title.
const NoTitle = "(No title)"

const (
	// DefaultPerPage is used when a filter leaves PerPage unset.
	DefaultPerPage = 50
	// MaxPerPage bounds per_page values accepted from user input.
	MaxPerPage = 500
	// MaxPage bounds page values accepted from user input.
	MaxPage = 1_000_000
)

// VisitRecord is a single visit joined with its URL metadata.
type VisitRecord struct {
	URL       string
	Title     string
	VisitTime time.Time
	Profile   string
}

// Filter selects visits across one or more profiles. Zero times and an empty
// keyword mean the corresponding clause is not applied.
type Filter struct {
	Keyword   string
	StartDate time.Time
	EndDate   time.Time
	Profiles  []string
	Page      int
	PerPage   int
}

// normalized returns a copy with page defaults applied and duplicate
// profiles removed, keeping the first occurrence.
func (f Filter) normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}

	seen := make(map[string]bool, len(f.Profiles))
	profiles := make([]string, 0, len(f.Profiles))
	for _, p := range f.Profiles {
		if seen[p] {
			continue
		}
		seen[p] = true
		profiles = append(profiles, p)
	}
	f.Profiles = profiles
	return f
}

// SearchPage is one page of merged, time-descending results.
type SearchPage struct {
	Records    []VisitRecord
	TotalCount int
	Page       int
	PerPage    int
	TotalPages int
}

// TotalPages returns ceil(total / perPage).
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

func newPage(f Filter, records []VisitRecord, total int) SearchPage {
	if records == nil {
		records = []VisitRecord{}
	}
	return SearchPage{
		Records:    records,
		TotalCount: total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: TotalPages(total, f.PerPage),
	}
}
