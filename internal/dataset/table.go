package dataset

import (
	"sort"
	"time"
)

// Filter selects a subset of a Table. Zero-value fields are open: an empty
// Location/Locations matches every location, and zero From/To leave that end
// of the date range unbounded.
type Filter struct {
	Location  string
	Locations []string
	From      time.Time
	To        time.Time
}

func (f Filter) matches(r Enriched) bool {
	if f.Location != "" && r.Location != f.Location {
		return false
	}
	if len(f.Locations) > 0 {
		found := false
		for _, loc := range f.Locations {
			if r.Location == loc {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	return true
}

// span is the half-open row range [start, end) of one location's partition.
type span struct {
	start, end int
}

// Table is the immutable enriched dataset. Rows are ordered by
// (location, date) ascending and indexed per location. All methods are pure
// reads; a Table is never modified after construction, so it is safe to share
// across goroutines without locking.
type Table struct {
	rows      []Enriched
	partition map[string]span
	locations []string
}

// NewTable builds a Table over rows, which must already be ordered by
// (location, date) ascending — the order the pipeline produces.
func NewTable(rows []Enriched) *Table {
	t := &Table{
		rows:      rows,
		partition: make(map[string]span),
	}
	for i := 0; i < len(rows); {
		j := i
		for j < len(rows) && rows[j].Location == rows[i].Location {
			j++
		}
		t.partition[rows[i].Location] = span{start: i, end: j}
		t.locations = append(t.locations, rows[i].Location)
		i = j
	}
	sort.Strings(t.locations)
	return t
}

// Len returns the number of rows in the table.
func (t *Table) Len() int { return len(t.rows) }

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool { return len(t.rows) == 0 }

// Locations returns the distinct locations in ascending order.
// The returned slice must not be modified.
func (t *Table) Locations() []string { return t.locations }

// Records returns the rows matching f, preserving table order.
func (t *Table) Records(f Filter) []Enriched {
	// Single-location filters only need to scan that partition.
	rows := t.rows
	if f.Location != "" {
		sp, ok := t.partition[f.Location]
		if !ok {
			return nil
		}
		rows = t.rows[sp.start:sp.end]
	}

	var out []Enriched
	for _, r := range rows {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the most recent row of location within f's date bounds.
// The second return value is false when the selection is empty.
func (t *Table) Latest(location string, f Filter) (Enriched, bool) {
	f.Location = location
	rows := t.Records(f)
	if len(rows) == 0 {
		return Enriched{}, false
	}
	return rows[len(rows)-1], true
}

// LatestDate returns the most recent date present anywhere in the table.
func (t *Table) LatestDate() (time.Time, bool) {
	var latest time.Time
	for _, r := range t.rows {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest, !latest.IsZero()
}

// AtDate returns the one row per location observed on date, ordered by
// location ascending.
func (t *Table) AtDate(date time.Time) []Enriched {
	var out []Enriched
	for _, r := range t.rows {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out
}

// TopByCases returns the n locations with the highest total_cases on date,
// descending. Fewer than n rows are returned when fewer locations reported.
func (t *Table) TopByCases(n int, date time.Time) []Enriched {
	rows := t.AtDate(date)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalCases > rows[j].TotalCases
	})
	if n < len(rows) {
		rows = rows[:n]
	}
	return rows
}
