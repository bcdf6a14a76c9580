package storage

import (
	"strings"
	"time"

	"github.com/runnerr0/archistory/internal/chrometime"
)

// Predicate is a parameterized WHERE clause over the visits/urls join.
// Clauses and their bound arguments are kept apart; nothing user supplied is
// ever interpolated into the SQL text.
type Predicate struct {
	Clauses []string
	Args    []any
}

// Where returns the clauses joined with AND, or an always-true expression.
func (p Predicate) Where() string {
	if len(p.Clauses) == 0 {
		return "1=1"
	}
	return strings.Join(p.Clauses, " AND ")
}

// MatchAll is the predicate that selects every visit.
var MatchAll = Predicate{}

// BuildPredicate translates a filter into a predicate.
//
// The keyword is matched as a case-insensitive substring of the URL or the
// title using SQLite LIKE. '%' and '_' inside the keyword are not escaped, so
// they keep their wildcard meaning.
func BuildPredicate(f Filter) Predicate {
	var p Predicate

	if f.Keyword != "" {
		pattern := "%" + f.Keyword + "%"
		p.Clauses = append(p.Clauses, "(urls.url LIKE ? OR urls.title LIKE ?)")
		p.Args = append(p.Args, pattern, pattern)
	}

	if !f.StartDate.IsZero() {
		p.Clauses = append(p.Clauses, "visits.visit_time >= ?")
		p.Args = append(p.Args, encode(StartOfDay(f.StartDate)))
	}

	if !f.EndDate.IsZero() {
		p.Clauses = append(p.Clauses, "visits.visit_time <= ?")
		p.Args = append(p.Args, encode(EndOfDay(f.EndDate)))
	}

	return p
}

// StartOfDay returns 00:00:00 local time on t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// EndOfDay returns 23:59:59 local time on t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.Local)
}

func encode(t time.Time) int64 {
	micros, err := chrometime.FromTime(chrometime.Clamp(t))
	if err != nil {
		// Clamp keeps t inside the codec's range.
		panic(err)
	}
	return micros
}
