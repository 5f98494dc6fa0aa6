package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Smoyabi/Covid19-Analysis/internal/telemetry"
)

// waitForRows polls until the current table has want rows.
func waitForRows(t *testing.T, st *Store, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if st.Current().Len() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("rows: got %d, want %d", st.Current().Len(), want)
}

func TestWatch_ReloadsOnRewrite(t *testing.T) {
	p := writeCSV(t, goodCSV)
	st := New()
	if err := st.Reload(p); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.Watch(ctx, p) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	})

	// Give the watcher a moment to register before touching the file.
	time.Sleep(100 * time.Millisecond)

	extended := goodCSV + "2020-01-03,Kenya,20,2,1000000\n"
	if err := os.WriteFile(p, []byte(extended), 0o600); err != nil {
		t.Fatalf("rewrite csv: %v", err)
	}
	waitForRows(t, st, 4)

	// A malformed rewrite is a failed reload: the previous table stays
	// current.
	before := st.Current()
	failures := testutil.ToFloat64(telemetry.LoadFailures)
	if err := os.WriteFile(p, []byte("not,a,covid\nheader,row,here\n"), 0o600); err != nil {
		t.Fatalf("rewrite csv: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for testutil.ToFloat64(telemetry.LoadFailures) == failures && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if testutil.ToFloat64(telemetry.LoadFailures) == failures {
		t.Fatal("watcher never attempted the malformed reload")
	}
	if st.Current() != before {
		t.Error("table changed after malformed rewrite, want previous kept")
	}

	// An atomic save (write temp, rename over the path) emits a create
	// event for a new inode; the watcher must follow it.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(goodCSV), 0o600); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		t.Fatalf("rename: %v", err)
	}
	waitForRows(t, st, 3)

	// Plain writes after the replace are still observed.
	extended += "2020-01-03,Brazil,200,20,200000000\n"
	if err := os.WriteFile(p, []byte(extended), 0o600); err != nil {
		t.Fatalf("rewrite csv: %v", err)
	}
	waitForRows(t, st, 5)
}
