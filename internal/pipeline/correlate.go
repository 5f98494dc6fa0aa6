package pipeline

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/Smoyabi/Covid19-Analysis/internal/dataset"
)

// MetricColumns lists the enriched metrics offered for correlation analysis,
// in presentation order.
var MetricColumns = []string{
	"total_cases",
	"total_deaths",
	"population",
	"cases_per_million",
	"deaths_per_million",
	"case_fatality_rate",
	"new_cases",
	"new_deaths",
}

// IsMetric reports whether name is a known metric column.
func IsMetric(name string) bool {
	for _, m := range MetricColumns {
		if m == name {
			return true
		}
	}
	return false
}

// Correlation computes the pairwise Pearson correlation of the named metrics
// over rows. Cell [i][j] correlates metrics[i] with metrics[j]; rows where
// either value is NaN are excluded from that pair, and a cell with fewer than
// two complete pairs (or zero variance) is NaN.
func Correlation(rows []dataset.Enriched, metrics []string) [][]float64 {
	cols := make([][]float64, len(metrics))
	for i, m := range metrics {
		cols[i] = column(rows, m)
	}

	matrix := make([][]float64, len(metrics))
	for i := range metrics {
		matrix[i] = make([]float64, len(metrics))
		for j := range metrics {
			matrix[i][j] = pearson(cols[i], cols[j])
		}
	}
	return matrix
}

// column extracts one metric across rows, preserving row order.
func column(rows []dataset.Enriched, metric string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = metricValue(r, metric)
	}
	return out
}

func metricValue(r dataset.Enriched, metric string) float64 {
	switch metric {
	case "total_cases":
		return r.TotalCases
	case "total_deaths":
		return r.TotalDeaths
	case "population":
		return r.Population
	case "cases_per_million":
		return r.CasesPerMillion
	case "deaths_per_million":
		return r.DeathsPerMillion
	case "case_fatality_rate":
		return r.CaseFatalityRate
	case "new_cases":
		return r.NewCases
	case "new_deaths":
		return r.NewDeaths
	}
	return math.NaN()
}

// pearson correlates two equal-length columns after dropping index positions
// where either side is NaN.
func pearson(a, b []float64) float64 {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r, err := stats.Pearson(xs, ys)
	if err != nil {
		return math.NaN()
	}
	return r
}
