// Package pipeline derives the per-row analytic fields from the raw
// observations: case fatality rate, per-million scalings, daily first
// differences of the cumulative counters, and 7-day trailing averages.
//
// Prepare is a pure transformation — it never errors and has no side effects.
// Rows with missing required fields are dropped, the remainder is stably
// sorted by (location, date), and each location's series is derived
// independently of every other location.
//
// The package also hosts the small presentation helpers shared with the view
// layer: FormatCompact for K/M/B count rendering and Correlation for the
// pairwise metric correlation matrix.
package pipeline
