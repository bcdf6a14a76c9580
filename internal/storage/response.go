package storage

import "time"

// DisplayLayout formats visit times for people.
const DisplayLayout = "2006-01-02 15:04:05"

// RecordJSON is the wire form of a VisitRecord.
type RecordJSON struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	VisitTime        string `json:"visit_time"`
	VisitTimeDisplay string `json:"visit_time_display"`
	Profile          string `json:"profile"`
}

// PageJSON is the wire form of a SearchPage.
type PageJSON struct {
	Results    []RecordJSON `json:"results"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
}

// NewPageJSON converts a page for encoding.
func NewPageJSON(p SearchPage) PageJSON {
	out := PageJSON{
		Results:    make([]RecordJSON, len(p.Records)),
		TotalCount: p.TotalCount,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages,
	}
	for i, r := range p.Records {
		local := r.VisitTime.Local()
		out.Results[i] = RecordJSON{
			URL:              r.URL,
			Title:            r.Title,
			VisitTime:        local.Format(time.RFC3339),
			VisitTimeDisplay: local.Format(DisplayLayout),
			Profile:          r.Profile,
		}
	}
	return out
}
