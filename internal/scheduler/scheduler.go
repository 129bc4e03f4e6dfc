// Package scheduler finds open time inside configured working hours.
package scheduler

import (
	"strings"
	"time"

	"github.com/grindflow/grindflow/internal/schedule"
)

// SearchDays bounds how far ahead NextFreeSlot looks.
const SearchDays = 14

// Scheduler provides time-aware scheduling operations.
type Scheduler struct {
	workdays map[string]bool
	dayStart string // "HH:MM"
	dayEnd   string // "HH:MM"
}

// New creates a new Scheduler with the given configuration.
func New(workdays []string, dayStart, dayEnd string) *Scheduler {
	wd := make(map[string]bool)
	for _, d := range workdays {
		wd[strings.ToLower(d)] = true
	}
	return &Scheduler{
		workdays: wd,
		dayStart: dayStart,
		dayEnd:   dayEnd,
	}
}

// AvailableSlot is an open half-open range on one day.
type AvailableSlot struct {
	Date  time.Time
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// Minutes returns the slot length.
func (a AvailableSlot) Minutes() int {
	return toMinutes(a.End) - toMinutes(a.Start)
}

// Slot converts the range into a candidate for the conflict detector.
func (a AvailableSlot) Slot() schedule.Slot {
	return schedule.Slot{Date: schedule.DayOf(a.Date), Start: a.Start, End: a.End}
}

// DayStart returns the configured day start time.
func (s *Scheduler) DayStart() string {
	return s.dayStart
}

// DayEnd returns the configured day end time.
func (s *Scheduler) DayEnd() string {
	return s.dayEnd
}

// IsWorkday returns true if the given time falls on a configured workday.
func (s *Scheduler) IsWorkday(t time.Time) bool {
	weekday := strings.ToLower(t.Weekday().String())
	return s.workdays[weekday]
}

// IsWithinWorkHours returns true if the given time is within configured work hours.
func (s *Scheduler) IsWithinWorkHours(t time.Time) bool {
	if !s.IsWorkday(t) {
		return false
	}
	nowTime := t.Format("15:04")
	return nowTime >= s.dayStart && nowTime < s.dayEnd
}

// FreeSlots returns the gaps between busy items on day inside working
// hours, in order. Items on other days or with unparseable times are
// ignored. Back-to-back items leave no gap between them.
func (s *Scheduler) FreeSlots(day time.Time, items []schedule.Item) []AvailableSlot {
	return s.freeFrom(day, toMinutes(s.dayStart), items)
}

func (s *Scheduler) freeFrom(day time.Time, from int, items []schedule.Item) []AvailableSlot {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := toMinutes(s.dayEnd)
	cursor := max(from, toMinutes(s.dayStart))

	var free []AvailableSlot
	for _, it := range schedule.ItemsOn(schedule.DayKey(day), items, day.Location()) {
		busyStart, err1 := schedule.TimeToMinutes(it.Start)
		busyEnd, err2 := schedule.TimeToMinutes(it.End)
		if err1 != nil || err2 != nil || busyEnd <= busyStart {
			continue
		}
		if busyStart >= end {
			break
		}
		if busyStart > cursor {
			free = append(free, s.slot(day, cursor, busyStart))
		}
		cursor = max(cursor, busyEnd)
	}
	if cursor < end {
		free = append(free, s.slot(day, cursor, end))
	}
	return free
}

func (s *Scheduler) slot(day time.Time, start, end int) AvailableSlot {
	return AvailableSlot{
		Date:  day,
		Start: schedule.MinutesToTime(start),
		End:   schedule.MinutesToTime(end),
	}
}

// NextFreeSlot returns the first open range of the given length on a
// workday, starting from now rounded up to the next 15 minutes. It looks
// at most SearchDays ahead. The returned slot is exactly minutes long.
func (s *Scheduler) NextFreeSlot(now time.Time, items []schedule.Item, minutes int) (AvailableSlot, bool) {
	if minutes <= 0 {
		return AvailableSlot{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	rounded := roundUpTo15Min(now)

	for i := range SearchDays {
		day := today.AddDate(0, 0, i)
		if !s.IsWorkday(day) {
			continue
		}
		from := 0
		if i == 0 {
			if rounded.Day() != now.Day() {
				continue
			}
			from = rounded.Hour()*60 + rounded.Minute()
		}
		for _, gap := range s.freeFrom(day, from, items) {
			if gap.Minutes() >= minutes {
				start := toMinutes(gap.Start)
				return s.slot(day, start, start+minutes), true
			}
		}
	}
	return AvailableSlot{}, false
}

// CanFit returns true if a block of the given duration fits inside working
// hours starting at startTime. The date is not checked against workdays.
func (s *Scheduler) CanFit(startTime string, durationMinutes int) bool {
	start := toMinutes(startTime)
	end := toMinutes(s.dayEnd)

	if start < toMinutes(s.dayStart) || start >= end {
		return false
	}

	return start+durationMinutes <= end
}

// roundUpTo15Min rounds a time up to the next 15-minute boundary.
func roundUpTo15Min(t time.Time) time.Time {
	minute := t.Minute()
	remainder := minute % 15
	if remainder == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	return t.Add(time.Duration(15-remainder) * time.Minute).Truncate(time.Minute)
}

// toMinutes parses "HH:MM" to minutes since midnight, 0 when malformed.
// Working hours are validated by config before they get here.
func toMinutes(s string) int {
	m, err := schedule.TimeToMinutes(s)
	if err != nil {
		return 0
	}
	return m
}
