package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Smoyabi/Covid19-Analysis/internal/dataset"
	"github.com/Smoyabi/Covid19-Analysis/internal/pipeline"
	"github.com/Smoyabi/Covid19-Analysis/internal/store"
	wsHub "github.com/Smoyabi/Covid19-Analysis/internal/ws"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

func rec(t *testing.T, loc, date string, cases float64) dataset.Record {
	t.Helper()
	tm, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	return dataset.Record{
		Location:    loc,
		Date:        tm,
		TotalCases:  cases,
		TotalDeaths: 1,
		Population:  1e6,
	}
}

func newStore(t *testing.T, recs ...dataset.Record) *store.Store {
	t.Helper()
	st := store.New()
	if len(recs) > 0 {
		st.Swap(dataset.NewTable(pipeline.Prepare(recs)))
	}
	return st
}

// startHub starts a test HTTP server with the hub as its handler.
// The hub's Run loop is started with a cancellable context.
func startHub(t *testing.T, st *store.Store) (wsURL string, hub *wsHub.Hub) {
	t.Helper()

	hub = wsHub.New(st, testInterval)
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

// dial connects a WebSocket client to wsURL and returns the connection.
func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one text message from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return msg
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesImmediateOverview(t *testing.T) {
	st := newStore(t, rec(t, "Kenya", "2020-01-01", 10))
	wsURL, _ := startHub(t, st)

	conn := dial(t, wsURL)
	msg := readMessage(t, conn)

	var m map[string]interface{}
	if err := json.Unmarshal(msg, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["event"] != "overview" {
		t.Errorf("event: got %v, want overview", m["event"])
	}
	data, ok := m["data"].(map[string]interface{})
	if !ok {
		t.Fatal("data: missing or wrong type")
	}
	if data["generated_at"] == nil || data["generated_at"] == "" {
		t.Error("generated_at: missing")
	}
	health, ok := data["health"].(map[string]interface{})
	if !ok {
		t.Fatal("health: missing or wrong type")
	}
	if health["state"] != "ok" {
		t.Errorf("health.state: got %v, want ok", health["state"])
	}
}

func TestHub_OverviewContainsTopLocations(t *testing.T) {
	st := newStore(t,
		rec(t, "Kenya", "2020-01-01", 10),
		rec(t, "Brazil", "2020-01-01", 100),
	)
	wsURL, _ := startHub(t, st)

	conn := dial(t, wsURL)
	msg := readMessage(t, conn)

	var m map[string]interface{}
	json.Unmarshal(msg, &m) //nolint:errcheck
	data := m["data"].(map[string]interface{})
	top, ok := data["top"].([]interface{})
	if !ok {
		t.Fatal("top: missing or wrong type")
	}
	if len(top) != 2 {
		t.Fatalf("top: got %d entries, want 2", len(top))
	}
	first := top[0].(map[string]interface{})
	if first["location"] != "Brazil" {
		t.Errorf("top[0].location: got %v, want Brazil", first["location"])
	}
}

func TestHub_EmptyDataset_EmptyOverview(t *testing.T) {
	wsURL, _ := startHub(t, newStore(t))
	conn := dial(t, wsURL)
	msg := readMessage(t, conn)

	var m map[string]interface{}
	json.Unmarshal(msg, &m) //nolint:errcheck
	data := m["data"].(map[string]interface{})
	health := data["health"].(map[string]interface{})
	if health["state"] != "empty" {
		t.Errorf("health.state: got %v, want empty", health["state"])
	}
	top := data["top"].([]interface{})
	if len(top) != 0 {
		t.Errorf("top: got %d entries, want 0", len(top))
	}
}

func TestHub_BroadcastsAfterReload(t *testing.T) {
	st := newStore(t)
	wsURL, _ := startHub(t, st)

	conn := dial(t, wsURL)
	readMessage(t, conn) // initial (empty) overview

	// Swap simulates a source reload; the hub re-broadcasts on notification.
	st.Swap(dataset.NewTable(pipeline.Prepare([]dataset.Record{
		rec(t, "Kenya", "2020-01-01", 10),
	})))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("no broadcast with loaded data after reload")
		}
		var m map[string]interface{}
		if err := json.Unmarshal(readMessage(t, conn), &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		health := m["data"].(map[string]interface{})["health"].(map[string]interface{})
		if health["state"] == "ok" {
			return
		}
	}
}

func TestHub_CountClients(t *testing.T) {
	wsURL, hub := startHub(t, newStore(t))

	conn := dial(t, wsURL)
	readMessage(t, conn) // consume initial message

	// Give the hub a moment to register the client.
	time.Sleep(10 * time.Millisecond)
	if n := hub.Count(); n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}

	conn.Close()
	deadline := time.Now().Add(time.Second)
	for hub.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := hub.Count(); n != 0 {
		t.Errorf("Count after close: got %d, want 0", n)
	}
}

// Clients dropping out while the ticker is fanning messages out must never
// crash the hub: only the Run loop closes send channels, so a disconnect can
// no longer race a concurrent send on the same channel.
func TestHub_DisconnectDuringBroadcast(t *testing.T) {
	st := newStore(t, rec(t, "Kenya", "2020-01-01", 10))

	// A very short interval keeps broadcasts firing throughout the churn.
	hub := wsHub.New(st, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	keeper := dial(t, wsURL)
	readMessage(t, keeper)

	const churn = 32
	var wg sync.WaitGroup
	for i := 0; i < churn; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return
			}
			conn.ReadMessage() //nolint:errcheck
			conn.Close()
		}()
	}
	wg.Wait()

	// The surviving client still receives broadcasts and the churned
	// clients are all unregistered.
	readMessage(t, keeper)
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := hub.Count(); n != 1 {
		t.Errorf("Count after churn: got %d, want 1", n)
	}
}
