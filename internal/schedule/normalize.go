// Package schedule implements the pure scheduling core: day normalization,
// half-open interval conflict detection and calendar grouping.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the canonical day key layout.
const DayLayout = "2006-01-02"

// Normalization errors.
var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrMalformedTime = errors.New("time must be in HH:MM format")
)

var canonicalDayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateInput is one of CanonicalDay, RawDate or Instant.
type DateInput interface {
	isDateInput()
}

// CanonicalDay is a date already rendered as YYYY-MM-DD. It is never re-parsed.
type CanonicalDay string

// RawDate is any other textual date representation, e.g. an RFC 3339 timestamp.
type RawDate string

// Instant is a native time value.
type Instant time.Time

func (CanonicalDay) isDateInput() {}
func (RawDate) isDateInput()      {}
func (Instant) isDateInput()      {}

// ParseDateInput classifies a string as CanonicalDay or RawDate.
func ParseDateInput(s string) DateInput {
	if canonicalDayRe.MatchString(s) {
		return CanonicalDay(s)
	}
	return RawDate(s)
}

// DayOf returns the DateInput for a time value.
func DayOf(t time.Time) DateInput {
	return Instant(t)
}

// rawLayouts are tried in order for RawDate values.
var rawLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
	"2006-1-2",
}

// NormalizeDay reduces in to a canonical YYYY-MM-DD key in loc.
// A nil loc means time.Local. Any YYYY-MM-DD shaped string passes through
// unchanged, even when it is not a real calendar day.
func NormalizeDay(in DateInput, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}

	switch v := in.(type) {
	case CanonicalDay:
		if !canonicalDayRe.MatchString(string(v)) {
			return "", fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, string(v))
		}
		return string(v), nil
	case RawDate:
		if canonicalDayRe.MatchString(string(v)) {
			return string(v), nil
		}
		t, err := parseRaw(string(v), loc)
		if err != nil {
			return "", err
		}
		return t.In(loc).Format(DayLayout), nil
	case Instant:
		t := time.Time(v)
		if t.IsZero() {
			return "", fmt.Errorf("%w: zero time", ErrInvalidDate)
		}
		return t.In(loc).Format(DayLayout), nil
	case nil:
		return "", fmt.Errorf("%w: missing date", ErrInvalidDate)
	default:
		return "", fmt.Errorf("%w: unsupported input %T", ErrInvalidDate, in)
	}
}

// parseRaw parses a free-form date string. Values without an explicit
// offset are read as wall-clock time in loc.
func parseRaw(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range rawLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// DayKey renders t as a canonical day key in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDayKey parses a canonical key as local midnight in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
	}
	return t, nil
}

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Hours must be 0-23 and minutes 0-59; anything else is ErrMalformedTime.
func TimeToMinutes(hhmm string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, hhmm)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || !isDigits(h) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, hhmm)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || !isDigits(m) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, hhmm)
	}
	if hours > 23 || mins > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrMalformedTime, hhmm)
	}
	return hours*60 + mins, nil
}

// MinutesToTime converts minutes since midnight to "HH:MM", clamped to the day.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= 24*60 {
		m = 24*60 - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// OverlapMinutes returns the overlapping minutes of two "HH:MM" ranges.
// Malformed input counts as no overlap.
func OverlapMinutes(start1, end1, start2, end2 string) int {
	s1, err1 := TimeToMinutes(start1)
	e1, err2 := TimeToMinutes(end1)
	s2, err3 := TimeToMinutes(start2)
	e2, err4 := TimeToMinutes(end2)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return 0
	}

	overlapStart := max(s1, s2)
	overlapEnd := min(e1, e2)
	if overlapEnd <= overlapStart {
		return 0
	}
	return overlapEnd - overlapStart
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
