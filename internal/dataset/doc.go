// Package dataset defines the COVID-19 observation types, the CSV reader that
// ingests the raw source file, and the immutable Table the rest of the server
// queries.
//
// A Record is one (location, date) observation as read from the source. An
// Enriched record additionally carries the derived analytic fields produced by
// the pipeline (case fatality rate, per-million scalings, daily differences,
// 7-day trailing averages). Derived rates that are undefined — division by
// zero — are NaN in memory and null on the wire.
//
// Table is built once per load and never mutated afterwards; every query
// method is a pure read, so no locking is needed between concurrent readers.
package dataset
