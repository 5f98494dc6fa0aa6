package pipeline

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/Smoyabi/Covid19-Analysis/internal/dataset"
)

// rollingWindow is the trailing-average window length in samples. The window
// shrinks at the start of a series; every row averages at least one sample.
const rollingWindow = 7

// Prepare turns raw observations into enriched rows, in order:
//
//  1. drop rows with any missing required field,
//  2. stable-sort by (location, date) ascending,
//  3. partition by location,
//  4. derive each partition's fields independently,
//  5. concatenate the partitions back into one ordered sequence.
//
// Division by zero propagates as NaN, never as an error. An empty (or fully
// invalid) input yields an empty output.
func Prepare(rows []dataset.Record) []dataset.Enriched {
	clean := make([]dataset.Record, 0, len(rows))
	for _, r := range rows {
		if r.Valid() {
			clean = append(clean, r)
		}
	}

	sort.SliceStable(clean, func(i, j int) bool {
		if clean[i].Location != clean[j].Location {
			return clean[i].Location < clean[j].Location
		}
		return clean[i].Date.Before(clean[j].Date)
	})

	out := make([]dataset.Enriched, 0, len(clean))
	for start := 0; start < len(clean); {
		end := start
		for end < len(clean) && clean[end].Location == clean[start].Location {
			end++
		}
		out = append(out, derive(clean[start:end])...)
		start = end
	}
	return out
}

// derive computes the analytic fields for one location's date-ordered rows.
func derive(part []dataset.Record) []dataset.Enriched {
	out := make([]dataset.Enriched, len(part))
	newCases := make([]float64, len(part))
	newDeaths := make([]float64, len(part))

	for i, r := range part {
		e := dataset.Enriched{Record: r}

		e.CaseFatalityRate = rate(r.TotalDeaths, r.TotalCases, 100)
		e.CasesPerMillion = rate(r.TotalCases, r.Population, 1e6)
		e.DeathsPerMillion = rate(r.TotalDeaths, r.Population, 1e6)

		// First difference of the cumulative counters; the first row of a
		// location has no prior value and yields 0. Counters revised downward
		// produce a negative difference — the source does not enforce
		// monotonicity and neither do we.
		if i > 0 {
			newCases[i] = r.TotalCases - part[i-1].TotalCases
			newDeaths[i] = r.TotalDeaths - part[i-1].TotalDeaths
		}
		e.NewCases = newCases[i]
		e.NewDeaths = newDeaths[i]

		e.NewCases7Day = trailingMean(newCases[:i+1])
		e.NewDeaths7Day = trailingMean(newDeaths[:i+1])

		out[i] = e
	}
	return out
}

// rate returns round2(num/den*scale), or NaN when den is not positive.
func rate(num, den, scale float64) float64 {
	if den <= 0 {
		return math.NaN()
	}
	return round2(num / den * scale)
}

// trailingMean averages the last up-to-rollingWindow values of series.
func trailingMean(series []float64) float64 {
	start := len(series) - rollingWindow
	if start < 0 {
		start = 0
	}
	m, err := stats.Mean(series[start:])
	if err != nil {
		// Unreachable: the window always holds at least one sample.
		return math.NaN()
	}
	return m
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
