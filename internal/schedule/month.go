package schedule

import (
	"slices"
	"time"
)

// MonthCells is the fixed size of a calendar grid: six weeks of seven days.
const MonthCells = 42

// Cell is one day of a month grid.
type Cell struct {
	Date      time.Time
	Key       string
	InMonth   bool
	IsToday   bool
	IsWeekend bool
	Items     []Item
}

// Month is a 42-cell grid starting on the Sunday on or before the 1st.
type Month struct {
	Year  int
	Month time.Month
	Cells [MonthCells]Cell
}

// Weeks returns the grid as six rows of seven cells.
func (m *Month) Weeks() [6][7]Cell {
	var rows [6][7]Cell
	for i, c := range m.Cells {
		rows[i/7][i%7] = c
	}
	return rows
}

// Index returns the cell index for a day key, or -1.
func (m *Month) Index(key string) int {
	for i, c := range m.Cells {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// MonthMatrix builds the grid for year/month, attaching the items that fall
// on each cell's canonical day ordered by start time.
func (g *Grouper) MonthMatrix(year int, month time.Month, items []Item) Month {
	loc := g.location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	todayKey := DayKey(g.now())

	byDay := make(map[string][]Item)
	for _, it := range items {
		key, err := NormalizeDay(it.Date, loc)
		if err != nil {
			g.logger().Warn("excluding item from month view", "id", it.ID, "field", "date", "err", err)
			continue
		}
		byDay[key] = append(byDay[key], it)
	}

	m := Month{Year: first.Year(), Month: first.Month()}
	for i := range MonthCells {
		// AddDate from the start keeps every cell at local midnight across DST changes.
		d := start.AddDate(0, 0, i)
		key := DayKey(d)
		dayItems := byDay[key]
		slices.SortStableFunc(dayItems, compareStart)
		m.Cells[i] = Cell{
			Date:      d,
			Key:       key,
			InMonth:   d.Month() == first.Month(),
			IsToday:   key == todayKey,
			IsWeekend: d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
			Items:     dayItems,
		}
	}
	return m
}
