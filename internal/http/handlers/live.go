package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/preston-bernstein/bracket-live-service/internal/http/requestutil"
	"github.com/preston-bernstein/bracket-live-service/internal/hub"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
)

const liveWriteTimeout = 5 * time.Second

// Subscriber hands out per-socket outboxes for a tournament.
type Subscriber interface {
	Subscribe(tournamentID, clientID string) <-chan hub.Message
	Unsubscribe(tournamentID, clientID string)
}

// LiveHandler upgrades browser connections and forwards hub messages to them.
type LiveHandler struct {
	hub            Subscriber
	logger         *slog.Logger
	originPatterns []string
}

// NewLiveHandler constructs a LiveHandler. originPatterns relaxes the same-origin check.
func NewLiveHandler(h Subscriber, logger *slog.Logger, originPatterns []string) *LiveHandler {
	return &LiveHandler{hub: h, logger: logger, originPatterns: originPatterns}
}

// ServeHTTP pushes refresh, status and notification messages until either side goes away.
// Anything the browser sends is discarded.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r, h.logger)
	if !ok {
		return
	}
	logger := loggerFromContext(r, h.logger)

	// Server-wide read/write timeouts must not apply to a long-lived socket.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		logging.Warn(logger, "live socket upgrade failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	clientID := requestutil.NewRequestID()
	out := h.hub.Subscribe(id, clientID)
	defer h.hub.Unsubscribe(id, clientID)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-out:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "hub closed")
				return
			}
			if err := writeMessage(ctx, conn, msg); err != nil {
				logging.Warn(logger, "live socket write failed", logging.FieldTournamentID, id, "error", err)
				return
			}
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msg hub.Message) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
