package schedule

import "time"

// ActiveItems returns the items on today's canonical day whose [start, end)
// range contains the current minute.
func (g *Grouper) ActiveItems(items []Item) []Item {
	now := g.now()
	todayKey := DayKey(now)
	minute := now.Hour()*60 + now.Minute()

	var out []Item
	for _, it := range ItemsOn(todayKey, items, g.location()) {
		if IsActiveAt(it, minute) {
			out = append(out, it)
		}
	}
	return out
}

// IsActiveAt reports whether minute falls inside the item's [start, end).
// Malformed times are never active.
func IsActiveAt(it Item, minute int) bool {
	s, err := TimeToMinutes(it.Start)
	if err != nil {
		return false
	}
	e, err := TimeToMinutes(it.End)
	if err != nil {
		return false
	}
	return s <= minute && minute < e
}

// IsPast reports whether the item ended before now.
func IsPast(it Item, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	key, err := NormalizeDay(it.Date, loc)
	if err != nil {
		return false
	}
	now = now.In(loc)
	today := DayKey(now)
	if key != today {
		return key < today
	}
	e, err := TimeToMinutes(it.End)
	if err != nil {
		return false
	}
	return now.Hour()*60+now.Minute() >= e
}
