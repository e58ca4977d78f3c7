package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

type sinkStub struct {
	mu       sync.Mutex
	replaced [][]domain.Project
	rejected []string
}

func (s *sinkStub) SnapshotReplaced(projects []domain.Project, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = append(s.replaced, projects)
}

func (s *sinkStub) SnapshotRejected(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, reason)
}

func TestClientDeliversPayloads(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan joinFrame, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var join joinFrame
		if _, payload, err := conn.ReadMessage(); err == nil {
			_ = json.Unmarshal(payload, &join)
		}
		received <- join

		good := `[{"id":"p1","name":"frontend","image":"","status":"","duration":60,
			"last_commit_sha":"abc","last_commit_author":"alice","last_commit_message":"ship",
			"updated_at":"2025-11-05T12:00:00Z","pipelines":[]}]`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(good)); err != nil {
			return
		}
		bad := `[{"name":"broken"}]`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(bad)); err != nil {
			return
		}
		// Hold the connection open until the client goes away.
		_, _, _ = conn.ReadMessage()
	}))
	defer ts.Close()

	sink := &sinkStub{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	client := NewClient(wsURL, "projects", 10*time.Millisecond, 50*time.Millisecond, sink, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		done := len(sink.replaced) == 1 && len(sink.rejected) == 1
		sink.mu.Unlock()
		if done {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case join := <-received:
		if join.Event != "join" || join.Topic != "projects" {
			t.Fatalf("unexpected join frame %+v", join)
		}
	default:
		t.Fatalf("server never saw a join frame")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.replaced) != 1 {
		t.Fatalf("expected one accepted payload, got %d", len(sink.replaced))
	}
	if sink.replaced[0][0].ID != "p1" {
		t.Fatalf("unexpected project %+v", sink.replaced[0][0])
	}
	if len(sink.rejected) != 1 {
		t.Fatalf("expected one rejected payload, got %d", len(sink.rejected))
	}
	if !strings.Contains(sink.rejected[0], "missing") {
		t.Fatalf("rejection reason should name the missing field, got %q", sink.rejected[0])
	}
}

func TestClientBackoffResetsAfterDelivery(t *testing.T) {
	upgrader := websocket.Upgrader{}
	payload := `[{"id":"p1","name":"frontend","image":"","status":"","duration":60,
		"last_commit_sha":"abc","last_commit_author":"alice","last_commit_message":"ship",
		"updated_at":"2025-11-05T12:00:00Z","pipelines":[]}]`

	// Every session delivers one payload and then drops the connection.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(payload))
	}))
	defer ts.Close()

	sink := &sinkStub{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	client := NewClient(wsURL, "projects", 10*time.Millisecond, 2*time.Second, sink, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	// Seven healthy sessions back to back. An accumulating schedule would
	// spend over 600ms on waits alone; with the reset each gap stays at the
	// minimum, so all of them fit well inside the deadline.
	deadline := time.Now().Add(450 * time.Millisecond)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		count := len(sink.replaced)
		sink.mu.Unlock()
		if count >= 7 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	t.Fatalf("reconnect schedule did not reset after delivered payloads, only %d sessions completed", len(sink.replaced))
}
