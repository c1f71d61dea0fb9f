package livesync

import (
	"context"
	"sync"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
)

type call struct {
	Action       string
	TournamentID string
	MatchID      bracket.ID
}

type recordingActions struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingActions) record(c call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *recordingActions) MatchStarted(_ context.Context, id string, matchID bracket.ID) {
	r.record(call{"started", id, matchID})
}

func (r *recordingActions) MatchCompleted(_ context.Context, id string, matchID bracket.ID) {
	r.record(call{"completed", id, matchID})
}

func (r *recordingActions) BracketUpdated(_ context.Context, id string) {
	r.record(call{"bracket", id, ""})
}

func (r *recordingActions) TableUpdated(_ context.Context, id string) {
	r.record(call{"table", id, ""})
}

func (r *recordingActions) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) Items() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.items...)
}

func (r *recordingNotifier) Persistent() []notify.Notification {
	var out []notify.Notification
	for _, n := range r.Items() {
		if n.Persistent {
			out = append(out, n)
		}
	}
	return out
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (s *stateLog) observe(st State) {
	s.mu.Lock()
	s.states = append(s.states, st)
	s.mu.Unlock()
}

func (s *stateLog) States() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.states...)
}

func (s *stateLog) count(st State) int {
	n := 0
	for _, v := range s.States() {
		if v == st {
			n++
		}
	}
	return n
}
