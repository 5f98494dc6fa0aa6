package pipeline

import (
	"math"
	"testing"

	"github.com/Smoyabi/Covid19-Analysis/internal/dataset"
)

const corrEps = 1e-9

func enrichedRow(cases, deaths, pop, cfr float64) dataset.Enriched {
	return dataset.Enriched{
		Record: dataset.Record{
			TotalCases:  cases,
			TotalDeaths: deaths,
			Population:  pop,
		},
		CaseFatalityRate: cfr,
	}
}

func TestCorrelation_PerfectlyCorrelatedColumns(t *testing.T) {
	// total_deaths is exactly 10% of total_cases in every row.
	rows := []dataset.Enriched{
		enrichedRow(100, 10, 1e6, 10),
		enrichedRow(200, 20, 2e6, 10),
		enrichedRow(400, 40, 3e6, 10),
	}

	m := Correlation(rows, []string{"total_cases", "total_deaths"})
	if got := m[0][1]; math.Abs(got-1) > corrEps {
		t.Errorf("corr(total_cases, total_deaths): got %v, want 1", got)
	}
	if got := m[0][0]; math.Abs(got-1) > corrEps {
		t.Errorf("corr(total_cases, total_cases): got %v, want 1", got)
	}
	if m[0][1] != m[1][0] {
		t.Errorf("matrix not symmetric: %v vs %v", m[0][1], m[1][0])
	}
}

func TestCorrelation_NegativeCorrelation(t *testing.T) {
	rows := []dataset.Enriched{
		enrichedRow(100, 30, 1e6, 30),
		enrichedRow(200, 20, 1e6, 10),
		enrichedRow(300, 10, 1e6, 3.3),
	}

	m := Correlation(rows, []string{"total_cases", "total_deaths"})
	if got := m[0][1]; math.Abs(got+1) > corrEps {
		t.Errorf("corr: got %v, want -1", got)
	}
}

func TestCorrelation_SkipsNaNPairs(t *testing.T) {
	// The NaN CFR row is excluded for the (cases, cfr) pair, leaving a
	// perfectly correlated remainder.
	rows := []dataset.Enriched{
		enrichedRow(100, 10, 1e6, 1),
		enrichedRow(200, 20, 1e6, 2),
		enrichedRow(300, 30, 1e6, math.NaN()),
		enrichedRow(400, 40, 1e6, 4),
	}

	m := Correlation(rows, []string{"total_cases", "case_fatality_rate"})
	if got := m[0][1]; math.Abs(got-1) > corrEps {
		t.Errorf("corr with NaN row excluded: got %v, want 1", got)
	}
}

func TestCorrelation_TooFewSamples(t *testing.T) {
	rows := []dataset.Enriched{enrichedRow(100, 10, 1e6, 10)}

	m := Correlation(rows, []string{"total_cases", "total_deaths"})
	if !math.IsNaN(m[0][1]) {
		t.Errorf("corr with one sample: got %v, want NaN", m[0][1])
	}
}

func TestCorrelation_EmptyRows(t *testing.T) {
	m := Correlation(nil, MetricColumns)
	if len(m) != len(MetricColumns) {
		t.Fatalf("matrix size: got %d, want %d", len(m), len(MetricColumns))
	}
	for i := range m {
		for j := range m[i] {
			if !math.IsNaN(m[i][j]) {
				t.Errorf("cell [%d][%d]: got %v, want NaN", i, j, m[i][j])
			}
		}
	}
}

func TestIsMetric(t *testing.T) {
	if !IsMetric("total_cases") {
		t.Error("IsMetric(total_cases): got false, want true")
	}
	if IsMetric("nope") {
		t.Error("IsMetric(nope): got true, want false")
	}
}
