// Package chrometime converts between Chromium history timestamps and time.Time.
//
// Chromium stores visit times as microseconds since 1601-01-01 00:00:00 UTC.
// Decoded values are expressed in time.Local, the same convention the query
// builder uses when it encodes calendar-day boundaries.
package chrometime

import (
	"errors"
	"fmt"
	"time"
)

// EpochOffset is the number of seconds between 1601-01-01 and 1970-01-01.
const EpochOffset int64 = 11644473600

const microsPerSecond int64 = 1_000_000

// ErrOutOfRange is returned for values that cannot be represented on the
// other side of the conversion.
var ErrOutOfRange = errors.New("timestamp out of range")

var (
	minTime = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC)
)

// ToTime converts Chromium microseconds to a local wall-clock time.
func ToTime(micros int64) (time.Time, error) {
	if micros < 0 {
		return time.Time{}, fmt.Errorf("%w: negative chrome time %d", ErrOutOfRange, micros)
	}

	sec := micros/microsPerSecond - EpochOffset
	usec := micros % microsPerSecond

	t := time.Unix(sec, usec*int64(time.Microsecond))
	if t.After(maxTime) {
		return time.Time{}, fmt.Errorf("%w: chrome time %d is past year 9999", ErrOutOfRange, micros)
	}
	return t.In(time.Local), nil
}

// FromTime converts a time to Chromium microseconds. Sub-microsecond
// precision is truncated.
func FromTime(t time.Time) (int64, error) {
	if t.Before(minTime) || t.After(maxTime) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, t.Format(time.RFC3339))
	}

	sec := t.Unix() + EpochOffset
	return sec*microsPerSecond + int64(t.Nanosecond())/int64(time.Microsecond), nil
}

// Clamp bounds t to the range FromTime accepts.
func Clamp(t time.Time) time.Time {
	switch {
	case t.Before(minTime):
		return minTime
	case t.After(maxTime):
		return maxTime
	}
	return t
}
