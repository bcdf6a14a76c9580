package storage

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-day format accepted for start and end dates.
const DateLayout = "2006-01-02"

var (
	errNotPositive    = errors.New("must be a positive integer")
	errUnknownProfile = errors.New("unknown profile selector")
	errTooLarge       = errors.New("exceeds maximum")
)

// FilterParams holds the raw, untrusted search inputs as they arrive from a
// query string or command-line flags.
type FilterParams struct {
	Keyword string
	Start   string
	End     string
	Profile string
	Page    string
	PerPage string
}

// ParseFilter converts raw inputs into a Filter. It never fails: every
// unusable value is replaced by its default and reported in the returned
// errors, each an *InputParseError.
//
// The profile selector may name one configured profile, a comma-separated
// list of them, or "all"/"both"/"" for every configured profile. Anything
// else falls back to every configured profile.
func ParseFilter(in FilterParams, configured []string, perPage int) (Filter, []error) {
	var errs []error

	f := Filter{
		Keyword: strings.TrimSpace(in.Keyword),
		Page:    1,
		PerPage: perPage,
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}

	if d, err := parseDate(in.Start); err != nil {
		errs = append(errs, &InputParseError{Field: "start", Value: in.Start, Err: err})
	} else {
		f.StartDate = d
	}

	if d, err := parseDate(in.End); err != nil {
		errs = append(errs, &InputParseError{Field: "end", Value: in.End, Err: err})
	} else {
		f.EndDate = d
	}

	profiles, err := selectProfiles(in.Profile, configured)
	if err != nil {
		errs = append(errs, &InputParseError{Field: "profile", Value: in.Profile, Err: err})
	}
	f.Profiles = profiles

	if pp := strings.TrimSpace(in.PerPage); pp != "" {
		n, err := parsePositive(pp)
		switch {
		case err != nil:
			errs = append(errs, &InputParseError{Field: "per_page", Value: in.PerPage, Err: err})
		case n > MaxPerPage:
			errs = append(errs, &InputParseError{Field: "per_page", Value: in.PerPage, Err: errTooLarge})
			f.PerPage = MaxPerPage
		default:
			f.PerPage = n
		}
	}

	if page := strings.TrimSpace(in.Page); page != "" {
		n, err := parsePositive(page)
		switch {
		case err != nil:
			errs = append(errs, &InputParseError{Field: "page", Value: in.Page, Err: err})
		case n > MaxPage:
			errs = append(errs, &InputParseError{Field: "page", Value: in.Page, Err: errTooLarge})
		default:
			f.Page = n
		}
	}

	return f, errs
}

// parseDate returns the zero time for empty input.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.Local)
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errNotPositive
	}
	return n, nil
}

func selectProfiles(selector string, configured []string) ([]string, error) {
	all := append([]string{}, configured...)

	selector = strings.TrimSpace(selector)
	switch strings.ToLower(selector) {
	case "", "all", "both":
		return all, nil
	}

	known := make(map[string]bool, len(configured))
	for _, p := range configured {
		known[p] = true
	}

	var picked []string
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !known[part] {
			return all, errUnknownProfile
		}
		picked = append(picked, part)
	}
	if len(picked) == 0 {
		return all, errUnknownProfile
	}
	return picked, nil
}
