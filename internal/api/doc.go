// Package api is the JSON query surface over the enriched table — the
// explicit query(table, filters) functions an external dashboard invokes
// whenever its controls change.
//
// Routes (all GET):
//   - /api/v1/health      — dataset state and counts
//   - /api/v1/countries   — sorted location list
//   - /api/v1/records     — enriched rows for a location/date-range selection
//   - /api/v1/summary     — latest-row KPI values for one location
//   - /api/v1/top         — top-N locations by total cases at a date
//   - /api/v1/compare     — per-location total-cases series
//   - /api/v1/correlation — pairwise metric correlation matrix at a date
//
// Every route degrades to an empty payload at 200 when there is no data;
// undefined rates are null. Bad query parameters are a 400 with a JSON error
// body. APIKey provides the optional x-api-key middleware for /api/ routes.
package api
