package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ticker_go/internal/domain"
	"ticker_go/internal/event"
	"ticker_go/internal/infra"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_SnapshotAndBroadcast(t *testing.T) {
	metrics := &infra.Metrics{}
	hub := NewHub("", metrics)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	refreshed := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	hub.Apply(&event.HeadlinesEvent{
		BaseEvent:   event.BaseEvent{Seq: 3, Ts: 1},
		Outcome:     domain.OutcomeFresh,
		Headlines:   []domain.Headline{{Title: "Markets rally", URL: "https://example.com/a"}},
		RefreshedAt: refreshed,
	})

	conn := dial(t, srv)
	snapshot := readMessage(t, conn)
	if snapshot.Type != event.TypeHeadlines || snapshot.Seq != 3 || snapshot.Outcome != "fresh" {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if len(snapshot.Headlines) != 1 || snapshot.Headlines[0].Title != "Markets rally" {
		t.Errorf("snapshot headlines = %+v", snapshot.Headlines)
	}
	if snapshot.RefreshedAt == nil || !snapshot.RefreshedAt.Equal(refreshed) {
		t.Errorf("refreshed_at = %v", snapshot.RefreshedAt)
	}

	waitForClients(t, hub, 1)
	if got := metrics.Snapshot().ActiveConnections; got != 1 {
		t.Errorf("ActiveConnections = %d", got)
	}

	hub.Apply(&event.QuotesEvent{
		BaseEvent:   event.BaseEvent{Seq: 1, Ts: 2},
		Outcome:     domain.OutcomePlaceholder,
		RefreshedAt: refreshed,
	})
	quotes := readMessage(t, conn)
	if quotes.Type != event.TypeQuotes || len(quotes.Stocks) != len(domain.FallbackStocks) {
		t.Errorf("empty quotes should render sample cells, got %+v", quotes)
	}
	if quotes.RefreshedAt != nil {
		t.Error("sample cells carry no refresh time")
	}

	hub.Apply(&event.NoticeEvent{Message: "No cached headlines available. Showing sample items."})
	if notice := readMessage(t, conn); notice.Type != event.TypeNotice || notice.Message == "" {
		t.Errorf("notice = %+v", notice)
	}
}

func TestHub_Disconnect(t *testing.T) {
	metrics := &infra.Metrics{}
	hub := NewHub("", metrics)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForClients(t, hub, 0)

	if got := metrics.Snapshot().ActiveConnections; got != 0 {
		t.Errorf("ActiveConnections = %d after disconnect", got)
	}
}

func TestHub_ServesIcons(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bbc.com.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewHub(dir, &infra.Metrics{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/icons/bbc.com.png")
	if err != nil {
		t.Fatalf("get icon: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Errorf("healthz body: %v", err)
	}
	if health.Panels != 0 {
		t.Errorf("no panel is connected, healthz reports %d", health.Panels)
	}
}
