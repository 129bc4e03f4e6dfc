package schedule

import (
	"fmt"
	"log/slog"
	"time"
)

// Priority is carried through to conflict results for display only.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// OrDefault returns p, or PriorityMedium when p is empty.
func (p Priority) OrDefault() Priority {
	if p == "" {
		return PriorityMedium
	}
	return p
}

// ConflictType classifies how two intervals relate.
type ConflictType string

const (
	ConflictOverlap  ConflictType = "overlap"
	ConflictContains ConflictType = "contains"
	ConflictAdjacent ConflictType = "adjacent"
)

// Item is a scheduled record occupying a day and a time range.
type Item struct {
	ID        string
	Title     string
	Date      DateInput
	Start     string // "HH:MM"
	End       string // "HH:MM"
	Priority  Priority
	CreatedAt time.Time
}

// Slot is a candidate time range checked before it is committed.
type Slot struct {
	Date  DateInput
	Start string
	End   string
}

// Conflict restates a conflicting item with its canonical day.
type Conflict struct {
	ID       string       `json:"id" yaml:"id"`
	Title    string       `json:"title" yaml:"title"`
	Date     string       `json:"date" yaml:"date"`
	Start    string       `json:"start" yaml:"start"`
	End      string       `json:"end" yaml:"end"`
	Priority Priority     `json:"priority" yaml:"priority"`
	Type     ConflictType `json:"type" yaml:"type"`
}

// Overlaps is the half-open interval predicate: [s1, e1) and [s2, e2)
// overlap if s1 < e2 and s2 < e1. Back-to-back ranges do not overlap.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// Classify describes how two intervals relate, for display. Detect does
// not use it: every detected conflict is reported as ConflictOverlap.
func Classify(s1, e1, s2, e2 int) ConflictType {
	switch {
	case !Overlaps(s1, e1, s2, e2) && (e1 == s2 || e2 == s1):
		return ConflictAdjacent
	case (s1 <= s2 && e2 <= e1) || (s2 <= s1 && e1 <= e2):
		return ConflictContains
	default:
		return ConflictOverlap
	}
}

// Detector finds existing items that collide with a candidate slot.
type Detector struct {
	// Location used to derive canonical days. Nil means time.Local.
	Location *time.Location
	// Logger receives warnings about excluded records. Nil means slog.Default().
	Logger *slog.Logger
}

// NewDetector returns a Detector comparing days in loc.
func NewDetector(loc *time.Location, logger *slog.Logger) *Detector {
	return &Detector{Location: loc, Logger: logger}
}

func (d *Detector) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Detect returns every item on the slot's canonical day whose interval
// overlaps the slot, in input order. The item whose ID equals excludeID
// is skipped. Items with unparseable dates or times are skipped with a
// warning; an unparseable slot is returned as an error.
func (d *Detector) Detect(slot Slot, items []Item, excludeID string) ([]Conflict, error) {
	slotDay, err := NormalizeDay(slot.Date, d.Location)
	if err != nil {
		return nil, fmt.Errorf("candidate date: %w", err)
	}
	s1, err := TimeToMinutes(slot.Start)
	if err != nil {
		return nil, fmt.Errorf("candidate start: %w", err)
	}
	e1, err := TimeToMinutes(slot.End)
	if err != nil {
		return nil, fmt.Errorf("candidate end: %w", err)
	}

	var conflicts []Conflict
	for _, it := range items {
		if excludeID != "" && it.ID == excludeID {
			continue
		}

		day, err := NormalizeDay(it.Date, d.Location)
		if err != nil {
			d.logger().Warn("excluding item from conflict check", "id", it.ID, "field", "date", "err", err)
			continue
		}
		if day != slotDay {
			continue
		}

		s2, err := TimeToMinutes(it.Start)
		if err != nil {
			d.logger().Warn("excluding item from conflict check", "id", it.ID, "field", "start", "err", err)
			continue
		}
		e2, err := TimeToMinutes(it.End)
		if err != nil {
			d.logger().Warn("excluding item from conflict check", "id", it.ID, "field", "end", "err", err)
			continue
		}

		if !Overlaps(s1, e1, s2, e2) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ID:       it.ID,
			Title:    it.Title,
			Date:     day,
			Start:    it.Start,
			End:      it.End,
			Priority: it.Priority.OrDefault(),
			Type:     ConflictOverlap,
		})
	}
	return conflicts, nil
}

// DetectConflicts runs a Detector in the local time zone with the default logger.
func DetectConflicts(slot Slot, items []Item, excludeID string) ([]Conflict, error) {
	return (&Detector{}).Detect(slot, items, excludeID)
}

// FormatConflict renders a conflict as "Title (HH:MM - HH:MM)".
func FormatConflict(c Conflict) string {
	return fmt.Sprintf("%s (%s - %s)", c.Title, c.Start, c.End)
}
