package schedule

import (
	"cmp"
	"log/slog"
	"slices"
	"time"
)

// Relative day labels.
const (
	LabelToday     = "Today"
	LabelTomorrow  = "Tomorrow"
	LabelYesterday = "Yesterday"
)

// LongDayLayout renders days outside the relative window.
const LongDayLayout = "Monday, January 2, 2006"

// DayGroup is one calendar day bucket.
type DayGroup struct {
	Key   string // YYYY-MM-DD
	Label string
	Items []Item
}

// Grouper buckets items by canonical day.
type Grouper struct {
	Clock    Clock
	Location *time.Location
	Logger   *slog.Logger
}

// NewGrouper returns a Grouper reading "now" from clock and comparing days in loc.
func NewGrouper(clock Clock, loc *time.Location, logger *slog.Logger) *Grouper {
	return &Grouper{Clock: clock, Location: loc, Logger: logger}
}

func (g *Grouper) location() *time.Location {
	if g.Location == nil {
		return time.Local
	}
	return g.Location
}

func (g *Grouper) now() time.Time {
	if g.Clock == nil {
		return time.Now().In(g.location())
	}
	return g.Clock.Now().In(g.location())
}

func (g *Grouper) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// GroupByDay partitions items into day groups ordered by key. Within a day,
// items are ordered by creation time ascending, then by ID. Items whose date
// cannot be normalized are left out with a warning.
func (g *Grouper) GroupByDay(items []Item) []DayGroup {
	buckets := make(map[string][]Item)
	for _, it := range items {
		key, err := NormalizeDay(it.Date, g.location())
		if err != nil {
			g.logger().Warn("excluding item from calendar", "id", it.ID, "field", "date", "err", err)
			continue
		}
		buckets[key] = append(buckets[key], it)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	now := g.now()
	groups := make([]DayGroup, 0, len(keys))
	for _, k := range keys {
		dayItems := buckets[k]
		slices.SortStableFunc(dayItems, compareCreated)
		groups = append(groups, DayGroup{
			Key:   k,
			Label: dayLabel(k, now, g.location()),
			Items: dayItems,
		})
	}
	return groups
}

// DayLabel returns Today, Tomorrow or Yesterday relative to now, or the
// long form for any other day. Keys that are not real dates are returned as is.
func DayLabel(key string, now time.Time) string {
	return dayLabel(key, now, now.Location())
}

func dayLabel(key string, now time.Time, loc *time.Location) string {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch key {
	case DayKey(today):
		return LabelToday
	case DayKey(today.AddDate(0, 0, 1)):
		return LabelTomorrow
	case DayKey(today.AddDate(0, 0, -1)):
		return LabelYesterday
	}
	d, err := ParseDayKey(key, loc)
	if err != nil {
		return key
	}
	return d.Format(LongDayLayout)
}

// ItemsOn returns the items on the given canonical day, ordered by start time.
func ItemsOn(key string, items []Item, loc *time.Location) []Item {
	var out []Item
	for _, it := range items {
		day, err := NormalizeDay(it.Date, loc)
		if err != nil || day != key {
			continue
		}
		out = append(out, it)
	}
	slices.SortStableFunc(out, compareStart)
	return out
}

func compareCreated(a, b Item) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// compareStart orders by start minute. Malformed start times sort last.
func compareStart(a, b Item) int {
	am, errA := TimeToMinutes(a.Start)
	bm, errB := TimeToMinutes(b.Start)
	switch {
	case errA != nil && errB != nil:
		return cmp.Compare(a.ID, b.ID)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	if c := cmp.Compare(am, bm); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
