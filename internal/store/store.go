package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Smoyabi/Covid19-Analysis/internal/dataset"
	"github.com/Smoyabi/Covid19-Analysis/internal/pipeline"
	"github.com/Smoyabi/Covid19-Analysis/internal/telemetry"
)

// Store holds the current immutable dataset.Table and swaps it atomically on
// reload. All exported methods are safe for concurrent use; readers share the
// current table without further locking.
type Store struct {
	mu       sync.RWMutex
	table    *dataset.Table
	loadedAt time.Time
	subs     []chan struct{}
	now      func() time.Time // injectable for deterministic tests
}

// New returns a Store holding the empty table.
func New() *Store {
	return &Store{
		table: dataset.NewTable(nil),
		now:   time.Now,
	}
}

// Current returns the table loaded most recently. The table is immutable and
// may be queried freely after the call.
func (s *Store) Current() *dataset.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// LoadedAt returns the time of the last successful load, or the zero time if
// no load has succeeded.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Swap installs t as the current table and notifies subscribers.
func (s *Store) Swap(t *dataset.Table) {
	s.mu.Lock()
	s.table = t
	s.loadedAt = s.now()
	subs := make([]chan struct{}, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	telemetry.DatasetRows.Set(float64(t.Len()))
	telemetry.DatasetLocations.Set(float64(len(t.Locations())))

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber hasn't drained the previous notification; it will
			// still observe the newest table when it does.
		}
	}
}

// Subscribe returns a channel that receives one value after every successful
// reload. The channel has a buffer of one; coalesced notifications are fine
// since subscribers re-read Current.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Reload reads the source CSV at path, runs the pipeline, and installs the
// result. On failure the current table is left untouched and the error is
// returned for the caller to log.
func (s *Store) Reload(path string) error {
	rows, err := dataset.ReadFile(path)
	if err != nil {
		telemetry.LoadFailures.Inc()
		return err
	}

	enriched := pipeline.Prepare(rows)
	t := dataset.NewTable(enriched)
	s.Swap(t)
	telemetry.Reloads.Inc()

	slog.Info("store: dataset loaded",
		"path", path,
		"rows", t.Len(),
		"locations", len(t.Locations()),
		"raw_rows", len(rows),
	)
	return nil
}
