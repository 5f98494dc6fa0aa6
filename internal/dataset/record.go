package dataset

import (
	"math"
	"time"
)

// Record is one raw (location, date) observation from the source file.
//
// Missing values survive parsing so the pipeline's filter step can drop them:
// a missing location is "", a missing date is the zero time, and a missing or
// non-numeric counter is NaN.
type Record struct {
	Location    string
	Date        time.Time
	TotalCases  float64
	TotalDeaths float64
	Population  float64
}

// Valid reports whether the record has all required fields present. Rows for
// which Valid is false are dropped before derivation.
func (r Record) Valid() bool {
	return r.Location != "" &&
		!r.Date.IsZero() &&
		!math.IsNaN(r.TotalCases) &&
		!math.IsNaN(r.TotalDeaths) &&
		!math.IsNaN(r.Population)
}

// Enriched is a Record plus the derived analytic fields.
//
// CaseFatalityRate is NaN when TotalCases is zero. CasesPerMillion and
// DeathsPerMillion are NaN when Population is not positive. NewCases and
// NewDeaths are the first differences of the cumulative counters within a
// location (0 for the first row of a location); the 7-day fields are trailing
// means over the last up-to-7 daily values.
type Enriched struct {
	Record

	CaseFatalityRate float64
	CasesPerMillion  float64
	DeathsPerMillion float64
	NewCases         float64
	NewDeaths        float64
	NewCases7Day     float64
	NewDeaths7Day    float64
}
