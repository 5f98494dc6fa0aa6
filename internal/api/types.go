package api

import (
	"math"

	"github.com/Smoyabi/Covid19-Analysis/internal/dataset"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State      string `json:"state"` // "ok" | "empty"
	Rows       int    `json:"rows"`
	Locations  int    `json:"locations"`
	LoadedAt   string `json:"loaded_at,omitempty"`   // RFC3339
	LatestDate string `json:"latest_date,omitempty"` // YYYY-MM-DD
}

// RecordResponse is one enriched row. Field names match the source dataset's
// column names; rates that are undefined for the row are null.
type RecordResponse struct {
	Location         string   `json:"location"`
	Date             string   `json:"date"` // YYYY-MM-DD
	TotalCases       float64  `json:"total_cases"`
	TotalDeaths      float64  `json:"total_deaths"`
	Population       float64  `json:"population"`
	CaseFatalityRate *float64 `json:"case_fatality_rate"`
	CasesPerMillion  *float64 `json:"cases_per_million"`
	DeathsPerMillion *float64 `json:"deaths_per_million"`
	NewCases         float64  `json:"new_cases"`
	NewDeaths        float64  `json:"new_deaths"`
	NewCases7Day     float64  `json:"new_cases_7day"`
	NewDeaths7Day    float64  `json:"new_deaths_7day"`
}

// SummaryResponse is the payload for GET /api/v1/summary — the KPI card
// values for one location's latest row in the selected range. Empty is true
// when the selection matches no rows; all other fields are then zero.
type SummaryResponse struct {
	Empty    bool   `json:"empty"`
	Location string `json:"location"`
	AsOf     string `json:"as_of,omitempty"` // YYYY-MM-DD

	TotalCases        float64 `json:"total_cases"`
	TotalCasesCompact string  `json:"total_cases_compact,omitempty"`

	TotalDeaths        float64 `json:"total_deaths"`
	TotalDeathsCompact string  `json:"total_deaths_compact,omitempty"`

	CaseFatalityRate        *float64 `json:"case_fatality_rate"`
	CaseFatalityRateDisplay string   `json:"case_fatality_rate_display,omitempty"` // e.g. "13.3%" or "N/A"

	CasesPerMillion        *float64 `json:"cases_per_million"`
	CasesPerMillionCompact string   `json:"cases_per_million_compact,omitempty"`
}

// TopResponse is the payload for GET /api/v1/top.
type TopResponse struct {
	Date    string           `json:"date,omitempty"` // YYYY-MM-DD
	Entries []RecordResponse `json:"entries"`
}

// CompareSeries is one location's series in GET /api/v1/compare.
type CompareSeries struct {
	Location string         `json:"location"`
	Points   []ComparePoint `json:"points"`
}

// ComparePoint is one (date, total_cases) sample of a comparison series.
type ComparePoint struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	TotalCases float64 `json:"total_cases"`
}

// CorrelationResponse is the payload for GET /api/v1/correlation. Matrix cell
// [i][j] correlates Metrics[i] with Metrics[j]; undefined cells are null.
type CorrelationResponse struct {
	Date    string       `json:"date,omitempty"` // YYYY-MM-DD
	Metrics []string     `json:"metrics"`
	Matrix  [][]*float64 `json:"matrix"`
}

// OverviewResponse is the envelope broadcast on the WebSocket stream.
type OverviewResponse struct {
	Health      HealthResponse   `json:"health"`
	Top         []RecordResponse `json:"top"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// toRecordResponse maps an enriched row to its JSON representation.
func toRecordResponse(e dataset.Enriched) RecordResponse {
	return RecordResponse{
		Location:         e.Location,
		Date:             e.Date.Format(dateLayout),
		TotalCases:       e.TotalCases,
		TotalDeaths:      e.TotalDeaths,
		Population:       e.Population,
		CaseFatalityRate: nullable(e.CaseFatalityRate),
		CasesPerMillion:  nullable(e.CasesPerMillion),
		DeathsPerMillion: nullable(e.DeathsPerMillion),
		NewCases:         e.NewCases,
		NewDeaths:        e.NewDeaths,
		NewCases7Day:     e.NewCases7Day,
		NewDeaths7Day:    e.NewDeaths7Day,
	}
}

// nullable maps NaN to nil so undefined rates encode as JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
