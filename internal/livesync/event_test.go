package livesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
)

func TestParseEventAcceptsNumericAndStringMatchIDs(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"MATCH_STARTED","matchId":42,"message":"시작"}`))
	require.NoError(t, err)
	assert.Equal(t, EventMatchStarted, ev.Type)
	assert.Equal(t, bracket.ID("42"), ev.MatchID)

	ev, err = ParseEvent([]byte(`{"type":"MATCH_COMPLETED","matchId":"m-7"}`))
	require.NoError(t, err)
	assert.Equal(t, bracket.ID("m-7"), ev.MatchID)
	assert.Equal(t, "MATCH_COMPLETED", ev.NotificationText())
}

func TestParseEventRejectsGarbage(t *testing.T) {
	for _, body := range []string{"not json", `"text"`, `[1,2]`, ``} {
		_, err := ParseEvent([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestEventKinds(t *testing.T) {
	assert.Equal(t, notify.KindSuccess, Event{Type: EventMatchCompleted}.NotificationKind())
	assert.Equal(t, notify.KindWarning, Event{Type: EventMatchStarted}.NotificationKind())
	assert.Equal(t, notify.KindInfo, Event{Type: EventBracketUpdated}.NotificationKind())
	assert.Equal(t, notify.KindInfo, Event{Type: "SOMETHING_ELSE"}.NotificationKind())

	assert.True(t, EventTableUpdated.Known())
	assert.False(t, EventType("SOMETHING_ELSE").Known())
}
