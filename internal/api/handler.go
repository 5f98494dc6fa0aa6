package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Smoyabi/Covid19-Analysis/internal/dataset"
	"github.com/Smoyabi/Covid19-Analysis/internal/pipeline"
	"github.com/Smoyabi/Covid19-Analysis/internal/store"
	"github.com/Smoyabi/Covid19-Analysis/internal/telemetry"
)

// dateLayout is the calendar-date format used in query parameters and
// responses.
const dateLayout = "2006-01-02"

// defaultTopN matches the original dashboard's "top 15 countries" bar chart.
const defaultTopN = 15

// Handler is the HTTP handler for all /api/v1/* endpoints. It reads the
// current table from the store and answers with JSON.
type Handler struct {
	store *store.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given store and registers all routes.
func New(st *store.Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/countries", h.countries)
	h.mux.HandleFunc("/api/v1/records", h.records)
	h.mux.HandleFunc("/api/v1/summary", h.summary)
	h.mux.HandleFunc("/api/v1/top", h.top)
	h.mux.HandleFunc("/api/v1/compare", h.compare)
	h.mux.HandleFunc("/api/v1/correlation", h.correlation)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Label by registered route, not raw path: arbitrary unmatched paths
	// would otherwise grow the counter's label set without bound.
	_, route := h.mux.Handler(r)
	if route == "" {
		route = "unmatched"
	}
	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	telemetry.APIRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
}

// statusRecorder captures the response code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — dataset state and counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildHealth(h.store))
}

// countries returns GET /api/v1/countries — the sorted location list.
func (h *Handler) countries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	locs := h.store.Current().Locations()
	if locs == nil {
		locs = []string{}
	}
	jsonResp(w, http.StatusOK, locs)
}

// records returns GET /api/v1/records — enriched rows for a selection.
// Parameters: location, from, to (YYYY-MM-DD), limit.
func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := h.store.Current().Records(f)
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	out := make([]RecordResponse, 0, len(rows))
	for _, e := range rows {
		out = append(out, toRecordResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// summary returns GET /api/v1/summary — KPI values for one location's latest
// row within the selected range. Parameters: location (required), from, to.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	location := r.URL.Query().Get("location")
	if location == "" {
		jsonErr(w, http.StatusBadRequest, "location is required")
		return
	}
	f, err := filterFromQuery(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	latest, ok := h.store.Current().Latest(location, f)
	if !ok {
		jsonResp(w, http.StatusOK, SummaryResponse{Empty: true, Location: location})
		return
	}

	jsonResp(w, http.StatusOK, SummaryResponse{
		Location:                location,
		AsOf:                    latest.Date.Format(dateLayout),
		TotalCases:              latest.TotalCases,
		TotalCasesCompact:       pipeline.FormatCompact(latest.TotalCases),
		TotalDeaths:             latest.TotalDeaths,
		TotalDeathsCompact:      pipeline.FormatCompact(latest.TotalDeaths),
		CaseFatalityRate:        nullable(latest.CaseFatalityRate),
		CaseFatalityRateDisplay: percentDisplay(latest.CaseFatalityRate),
		CasesPerMillion:         nullable(latest.CasesPerMillion),
		CasesPerMillionCompact:  pipeline.FormatCompact(latest.CasesPerMillion),
	})
}

// top returns GET /api/v1/top — the n locations with the most total cases at
// a date. Parameters: n (default 15), date (default: latest in the table).
func (h *Handler) top(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	n, err := intParam(r, "n", defaultTopN)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if n <= 0 {
		jsonErr(w, http.StatusBadRequest, "n must be positive")
		return
	}

	t := h.store.Current()
	date, ok, err := dateOrLatest(r, t)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		jsonResp(w, http.StatusOK, TopResponse{Entries: []RecordResponse{}})
		return
	}

	rows := t.TopByCases(n, date)
	entries := make([]RecordResponse, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, toRecordResponse(e))
	}
	jsonResp(w, http.StatusOK, TopResponse{
		Date:    date.Format(dateLayout),
		Entries: entries,
	})
}

// compare returns GET /api/v1/compare — a total-cases series per requested
// location. Parameters: locations (comma-separated, required), from, to.
func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := r.URL.Query().Get("locations")
	if raw == "" {
		jsonErr(w, http.StatusBadRequest, "locations is required")
		return
	}
	f, err := filterFromQuery(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	t := h.store.Current()
	out := make([]CompareSeries, 0)
	for _, loc := range strings.Split(raw, ",") {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		f.Location = loc
		rows := t.Records(f)
		points := make([]ComparePoint, 0, len(rows))
		for _, e := range rows {
			points = append(points, ComparePoint{
				Date:       e.Date.Format(dateLayout),
				TotalCases: e.TotalCases,
			})
		}
		out = append(out, CompareSeries{Location: loc, Points: points})
	}
	jsonResp(w, http.StatusOK, out)
}

// correlation returns GET /api/v1/correlation — the pairwise Pearson
// correlation of the enriched metrics across all locations at one date.
// Parameters: date (default: latest), metrics (comma-separated subset).
func (h *Handler) correlation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	metrics := pipeline.MetricColumns
	if raw := r.URL.Query().Get("metrics"); raw != "" {
		metrics = nil
		for _, m := range strings.Split(raw, ",") {
			m = strings.TrimSpace(m)
			if !pipeline.IsMetric(m) {
				jsonErr(w, http.StatusBadRequest, fmt.Sprintf("unknown metric %q", m))
				return
			}
			metrics = append(metrics, m)
		}
	}

	t := h.store.Current()
	date, ok, err := dateOrLatest(r, t)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := CorrelationResponse{Metrics: metrics}
	var rows []dataset.Enriched
	if ok {
		resp.Date = date.Format(dateLayout)
		rows = t.AtDate(date)
	}

	matrix := pipeline.Correlation(rows, metrics)
	resp.Matrix = make([][]*float64, len(matrix))
	for i, row := range matrix {
		resp.Matrix[i] = make([]*float64, len(row))
		for j, v := range row {
			resp.Matrix[i][j] = nullable(v)
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- shared builders --------------------------------------------------------

// BuildHealth summarizes the store's current table. Shared with the
// WebSocket overview stream.
func BuildHealth(st *store.Store) HealthResponse {
	t := st.Current()
	resp := HealthResponse{
		Rows:      t.Len(),
		Locations: len(t.Locations()),
	}
	if t.Empty() {
		resp.State = "empty"
	} else {
		resp.State = "ok"
	}
	if at := st.LoadedAt(); !at.IsZero() {
		resp.LoadedAt = at.UTC().Format(time.RFC3339)
	}
	if d, ok := t.LatestDate(); ok {
		resp.LatestDate = d.Format(dateLayout)
	}
	return resp
}

// BuildOverview assembles the WebSocket broadcast payload: dataset health
// plus the current top locations by total cases.
func BuildOverview(st *store.Store) OverviewResponse {
	t := st.Current()
	out := OverviewResponse{
		Health:      BuildHealth(st),
		Top:         []RecordResponse{},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if d, ok := t.LatestDate(); ok {
		for _, e := range t.TopByCases(defaultTopN, d) {
			out.Top = append(out.Top, toRecordResponse(e))
		}
	}
	return out
}

// --- helpers ----------------------------------------------------------------

// filterFromQuery builds a dataset.Filter from the location/from/to query
// parameters.
func filterFromQuery(r *http.Request) (dataset.Filter, error) {
	q := r.URL.Query()
	f := dataset.Filter{Location: q.Get("location")}

	var err error
	if f.From, err = dateParam(q.Get("from")); err != nil {
		return dataset.Filter{}, fmt.Errorf("from: %w", err)
	}
	if f.To, err = dateParam(q.Get("to")); err != nil {
		return dataset.Filter{}, fmt.Errorf("to: %w", err)
	}
	return f, nil
}

// dateParam parses a YYYY-MM-DD value; empty means unset.
func dateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// intParam parses an integer query parameter, returning def when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: want integer, got %q", name, s)
	}
	return v, nil
}

// dateOrLatest resolves the date parameter, falling back to the table's
// latest date. ok is false when neither is available (empty table).
func dateOrLatest(r *http.Request, t *dataset.Table) (time.Time, bool, error) {
	d, err := dateParam(r.URL.Query().Get("date"))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("date: %w", err)
	}
	if !d.IsZero() {
		return d, true, nil
	}
	d, ok := t.LatestDate()
	return d, ok, nil
}

// percentDisplay renders a case fatality rate for a KPI card.
func percentDisplay(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
