package notify

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedKeepsNewestFirstAndCaps(t *testing.T) {
	feed := NewFeed(3)
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return fixed }

	for _, msg := range []string{"a", "b", "c", "d"} {
		feed.Notify(context.Background(), Notification{TournamentID: "1", Kind: KindInfo, Message: msg})
	}
	feed.Notify(context.Background(), Notification{TournamentID: "2", Message: "other"})

	got := feed.Recent("1", 0)
	require.Len(t, got, 3)
	assert.Equal(t, "d", got[0].Message)
	assert.Equal(t, "b", got[2].Message)
	assert.Equal(t, fixed, got[0].At)

	assert.Len(t, feed.Recent("1", 1), 1)
	assert.Empty(t, feed.Recent("missing", 5))
}

func TestMultiFansOut(t *testing.T) {
	var seen []string
	record := func(tag string) Notifier {
		return NotifierFunc(func(_ context.Context, n Notification) { seen = append(seen, tag+":"+n.Message) })
	}
	Multi{record("a"), nil, record("b")}.Notify(context.Background(), Notification{Message: "hi"})
	assert.Equal(t, []string{"a:hi", "b:hi"}, seen)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	n.Notify(context.Background(), Notification{TournamentID: "7", Kind: KindDanger, Message: "lost", Persistent: true})

	out := buf.String()
	assert.True(t, strings.Contains(out, "level=WARN"), out)
	assert.Contains(t, out, "tournament_id=7")
	assert.Contains(t, out, "persistent=true")

	LogNotifier{}.Notify(context.Background(), Notification{})
}
