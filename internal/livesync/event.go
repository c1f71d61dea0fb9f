package livesync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
)

// EventType discriminates live messages.
type EventType string

const (
	EventMatchStarted   EventType = "MATCH_STARTED"
	EventMatchCompleted EventType = "MATCH_COMPLETED"
	EventBracketUpdated EventType = "BRACKET_UPDATED"
	EventTableUpdated   EventType = "TABLE_UPDATED"
)

// Known reports whether t drives a specific view action.
func (t EventType) Known() bool {
	switch t {
	case EventMatchStarted, EventMatchCompleted, EventBracketUpdated, EventTableUpdated:
		return true
	default:
		return false
	}
}

// Event is the payload published on a tournament topic.
type Event struct {
	Type    EventType  `json:"type"`
	MatchID bracket.ID `json:"matchId,omitempty"`
	Message string     `json:"message"`
}

// ParseEvent decodes a message body. Bodies that are not a JSON object are rejected.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("parse live event: %w", err)
	}
	return ev, nil
}

// NotificationKind maps the event onto a notification colour.
func (e Event) NotificationKind() notify.Kind {
	switch e.Type {
	case EventMatchCompleted:
		return notify.KindSuccess
	case EventMatchStarted:
		return notify.KindWarning
	default:
		return notify.KindInfo
	}
}

// NotificationText is the message shown for the event, falling back to its type.
func (e Event) NotificationText() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Type)
}

// Actions are the view operations live events trigger. Implementations decide
// whether the current view actually shows the affected card or dialog.
type Actions interface {
	MatchStarted(ctx context.Context, tournamentID string, matchID bracket.ID)
	MatchCompleted(ctx context.Context, tournamentID string, matchID bracket.ID)
	BracketUpdated(ctx context.Context, tournamentID string)
	TableUpdated(ctx context.Context, tournamentID string)
}
