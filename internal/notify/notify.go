// Package notify delivers user-facing notifications raised by the live channel.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/bracket-live-service/internal/logging"
)

// Kind selects the colour of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
	KindDanger  Kind = "danger"
)

// Notification is one message shown to viewers of a tournament.
// Persistent notifications stay until the page is reloaded.
type Notification struct {
	TournamentID string    `json:"tournamentId"`
	Kind         Kind      `json:"kind"`
	Message      string    `json:"message"`
	Persistent   bool      `json:"persistent"`
	At           time.Time `json:"at"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans a notification out to every non-nil notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) {
	logger := logging.FromContext(ctx, l.Logger)
	if logger == nil {
		return
	}
	level := slog.LevelInfo
	if n.Kind == KindDanger {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "notification",
		slog.String(logging.FieldTournamentID, n.TournamentID),
		slog.String("kind", string(n.Kind)),
		slog.String("message", n.Message),
		slog.Bool("persistent", n.Persistent),
	)
}

const defaultFeedSize = 50

// Feed keeps the most recent notifications per tournament in memory.
type Feed struct {
	mu    sync.Mutex
	size  int
	items map[string][]Notification
	now   func() time.Time
}

// NewFeed returns a feed retaining up to size entries per tournament.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &Feed{size: size, items: make(map[string][]Notification), now: time.Now}
}

func (f *Feed) Notify(_ context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = f.now()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append(f.items[n.TournamentID], n)
	if len(list) > f.size {
		list = append([]Notification(nil), list[len(list)-f.size:]...)
	}
	f.items[n.TournamentID] = list
}

// Recent returns up to limit notifications for tournamentID, newest first. limit <= 0 returns all retained.
func (f *Feed) Recent(tournamentID string, limit int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.items[tournamentID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Notification, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}
