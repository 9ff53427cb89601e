package live_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/viva-ai/viva/internal/handler/live"
	model "github.com/viva-ai/viva/internal/model/interview"
	interviewsvc "github.com/viva-ai/viva/internal/service/interview"
)

type turnEvent struct {
	Type string     `json:"type"`
	Turn model.Turn `json:"turn"`
}

func newFeedServer(t *testing.T) (*httptest.Server, *interviewsvc.Service) {
	t.Helper()
	store := interviewsvc.NewService(10)
	r := chi.NewRouter()
	live.New(store).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func dialFeed(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/interview/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) turnEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev turnEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestFeedReplaysBacklogThenStreams(t *testing.T) {
	srv, store := newFeedServer(t)
	ctx := context.Background()

	session, _ := store.CreateSession(ctx, "s1", "Ana", "Widget App")
	store.AppendTurn(ctx, model.Turn{
		SessionID: session.ID,
		Kind:      model.TurnQuestion,
		Text:      "earlier question",
		Index:     1,
	})

	conn := dialFeed(t, srv, session.ID)

	ev := readEvent(t, conn)
	if ev.Type != "turn" || ev.Turn.Text != "earlier question" {
		t.Fatalf("backlog event = %+v", ev)
	}

	store.AppendTurn(ctx, model.Turn{
		SessionID: session.ID,
		Kind:      model.TurnResponse,
		Text:      "live answer",
	})

	ev = readEvent(t, conn)
	if ev.Turn.Kind != model.TurnResponse || ev.Turn.Text != "live answer" {
		t.Fatalf("live event = %+v", ev)
	}
}

func TestFeedUnknownSession(t *testing.T) {
	srv, _ := newFeedServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/interview/ws/no-such-session"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail for an unknown session")
	}
	if res != nil && res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.StatusCode)
	}
}
