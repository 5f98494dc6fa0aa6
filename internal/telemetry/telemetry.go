package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DatasetRows is the number of enriched rows currently loaded.
	DatasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "covid_dataset_rows",
		Help: "Number of enriched rows in the current table.",
	})

	// DatasetLocations is the number of distinct locations currently loaded.
	DatasetLocations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "covid_dataset_locations",
		Help: "Number of distinct locations in the current table.",
	})

	// Reloads counts successful loads of the source file, including the
	// initial one.
	Reloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_dataset_reloads_total",
		Help: "Successful loads of the source CSV.",
	})

	// LoadFailures counts loads that failed to read or parse the source.
	LoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_dataset_load_failures_total",
		Help: "Failed loads of the source CSV.",
	})

	// APIRequests counts API requests by route and status code.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covid_api_requests_total",
		Help: "API requests served, by route and status code.",
	}, []string{"path", "code"})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
