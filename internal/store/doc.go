// Package store holds the current enriched table and manages its lifecycle:
// the one-shot load at process start, fsnotify-driven refreshes when the
// backing CSV is rewritten, and refresh notifications for subscribers.
//
// The table itself is immutable; the store only swaps the current pointer.
// A failed initial load leaves the empty table in place — an empty dataset is
// a first-class state every consumer must render. A failed refresh keeps the
// previous table.
package store
