package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"
)

// dateLayout is the calendar-date format used by the source file.
const dateLayout = "2006-01-02"

// requiredColumns must all appear in the source header. Extra columns are
// ignored; column order does not matter.
var requiredColumns = []string{"date", "location", "total_cases", "total_deaths", "population"}

// ReadFile reads the COVID-19 source CSV at path into raw records.
//
// The header row is resolved by column name. Rows whose required fields are
// empty or non-numeric are kept with the missing values marked (empty
// location, zero date, NaN counters) so the pipeline's filter step drops them;
// the count of such rows is logged once per load. An unreadable file, a
// missing required column, or a structurally malformed row is a load failure
// and returns an error — callers degrade to an empty table.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	recs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	return recs, nil
}

// Read parses CSV source data from r. See ReadFile for the handling rules.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var (
		out        []Record
		incomplete int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := Record{
			Location:    row[cols["location"]],
			Date:        parseDate(row[cols["date"]]),
			TotalCases:  parseNumber(row[cols["total_cases"]]),
			TotalDeaths: parseNumber(row[cols["total_deaths"]]),
			Population:  parseNumber(row[cols["population"]]),
		}
		if !rec.Valid() {
			incomplete++
		}
		out = append(out, rec)
	}

	if incomplete > 0 {
		slog.Info("dataset: rows with missing required fields will be dropped",
			"incomplete", incomplete, "total", len(out))
	}
	return out, nil
}

// parseDate returns the zero time for empty or unparseable values.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseNumber returns NaN for empty or non-numeric values.
func parseNumber(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
