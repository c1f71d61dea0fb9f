package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/preston-bernstein/bracket-live-service/internal/hub"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
)

func startLiveServer(t *testing.T, h *hub.Hub) string {
	t.Helper()
	r := chi.NewRouter()
	r.Method("GET", "/tournaments/{id}/live", NewLiveHandler(h, nil, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialLive(t *testing.T, ctx context.Context, base, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, base+"/tournaments/"+id+"/live", nil)
	if err != nil {
		t.Fatalf("dial live socket: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func waitForSubscribers(t *testing.T, h *hub.Hub, id string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers(id) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers for %s, got %d", want, id, h.Subscribers(id))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLiveSocketForwardsHubMessages(t *testing.T) {
	h := hub.New(context.Background())
	defer h.Close()
	base := startLiveServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialLive(t, ctx, base, "cup")
	waitForSubscribers(t, h, "cup", 1)

	h.PublishRefresh("cup", 7)
	h.PublishStatus("league", "connected")
	h.Notify(ctx, notify.Notification{TournamentID: "cup", Kind: notify.KindDanger, Message: "down", Persistent: true})

	var first hub.Message
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("read refresh: %v", err)
	}
	if first.Type != hub.MessageRefresh || first.Version != 7 {
		t.Fatalf("unexpected first message %+v", first)
	}

	var second hub.Message
	if err := wsjson.Read(ctx, conn, &second); err != nil {
		t.Fatalf("read notification: %v", err)
	}
	if second.Type != hub.MessageNotification || second.Notification == nil || !second.Notification.Persistent {
		t.Fatalf("expected the other tournament's status to be filtered, got %+v", second)
	}
}

func TestLiveSocketUnsubscribesOnClose(t *testing.T) {
	h := hub.New(context.Background())
	defer h.Close()
	base := startLiveServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialLive(t, ctx, base, "cup")
	waitForSubscribers(t, h, "cup", 1)

	_ = conn.Close(websocket.StatusNormalClosure, "")
	waitForSubscribers(t, h, "cup", 0)
}

func TestLiveSocketClosesWhenHubStops(t *testing.T) {
	h := hub.New(context.Background())
	base := startLiveServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialLive(t, ctx, base, "cup")
	waitForSubscribers(t, h, "cup", 1)

	h.Close()

	var msg hub.Message
	err := wsjson.Read(ctx, conn, &msg)
	if websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.Fatalf("expected going-away close, got %v", err)
	}
}
