package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/engine"
	"flag-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "/ws?player=u1&name=Alice&variant=sudden-death")
	defer conn.Close()

	first := readSnapshot(t, conn)
	if len(first.Options) != domain.OptionCount {
		t.Fatalf("expected %d options, got %v", domain.OptionCount, first.Options)
	}

	correct := countryFor(t, first.ImageRef)
	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"option": correct}})

	var result domain.AnswerResult
	readUntil(t, conn, "answerResult", &result)
	if result.Outcome != domain.OutcomeCorrect || result.Snapshot.Score != 1 {
		t.Fatalf("expected correct answer with score 1, got %+v", result)
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"option": "Atlantis"}})
	readUntil(t, conn, "answerResult", &result)
	if result.Snapshot.Status != domain.StatusGameOver {
		t.Fatalf("expected game over, got %s", result.Snapshot.Status)
	}

	send(t, conn, map[string]any{"type": "restart"})
	var restarted domain.Snapshot
	readUntil(t, conn, "question", &restarted)
	if restarted.Status != domain.StatusPlaying || restarted.Score != 0 {
		t.Fatalf("expected fresh game, got %+v", restarted)
	}
}

func TestWebSocketNavigation(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "/ws?player=u1&name=Alice&variant=sequential")
	defer conn.Close()

	first := readSnapshot(t, conn)
	if first.ImageRef != "uk.png" {
		t.Fatalf("expected first flag uk.png, got %s", first.ImageRef)
	}

	send(t, conn, map[string]any{"type": "previous"})
	var snap domain.Snapshot
	readUntil(t, conn, "question", &snap)
	if snap.ImageRef != "japan.png" {
		t.Fatalf("expected japan.png, got %s", snap.ImageRef)
	}

	send(t, conn, map[string]any{"type": "restart"})
	var failure errorPayload
	readUntil(t, conn, "error", &failure)
	if !strings.Contains(failure.Message, "not supported") {
		t.Fatalf("expected unsupported error, got %q", failure.Message)
	}
}

func TestWebSocketRejectsMissingPlayer(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?name=Alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRouterServesMetricsAndScoreboard(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	for _, path := range []string{"/healthz", "/scoreboard", "/variants", "/metrics"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.StatusCode, body)
		}
		if path == "/healthz" && string(body) != "ok" {
			t.Fatalf("healthz: expected ok, got %q", body)
		}
	}
}

func TestEnqueueStopsWhenWriterIsGone(t *testing.T) {
	out := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})

	if !enqueue(out, writerDone, outboundMessage[any]{Type: "question"}) {
		t.Fatalf("expected message queued while the writer runs")
	}

	// buffer is full and nobody drains it
	close(writerDone)
	result := make(chan bool, 1)
	go func() { result <- enqueue(out, writerDone, outboundMessage[any]{Type: "answerResult"}) }()
	select {
	case ok := <-result:
		if ok {
			t.Fatalf("expected enqueue to fail after the writer stopped")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("enqueue blocked on a full buffer")
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewSessionStore()
	catalogs := memory.NewCatalogRepository(memory.NewDefaultCatalogLoader(), time.Minute)
	service := app.NewGameService(store, catalogs, app.WithRandSource(func() engine.Rand {
		return engine.NewRand(7)
	}))
	return httptest.NewServer(NewRouter(service, NewWSHandler(service, nil), prometheus.NewRegistry()))
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	readUntil(t, conn, "question", &snap)
	return snap
}

// readUntil skips scoreboard broadcasts and decodes the first message of type want.
func readUntil(t *testing.T, conn *websocket.Conn, want string, payload any) {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "scoreboard" {
			continue
		}
		if msg.Type != want {
			t.Fatalf("expected type %s, got %s: %s", want, msg.Type, msg.Payload)
		}
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			t.Fatalf("decode %s: %v", want, err)
		}
		return
	}
	t.Fatalf("no %s message received", want)
}

func countryFor(t *testing.T, imageRef string) string {
	t.Helper()
	for _, entry := range domain.DefaultCatalog() {
		if entry.ImageRef == imageRef {
			return entry.Country
		}
	}
	t.Fatalf("unknown image %q", imageRef)
	return ""
}
