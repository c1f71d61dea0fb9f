package store

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

// Entry is the current view state of one tournament.
type Entry struct {
	TournamentID string
	Snapshot     bracket.Snapshot
	// Layout is nil when the tournament has no bracket or the last fetch failed.
	Layout     *bracket.Layout
	ErrorKind  string
	Cards      []bracket.MatchCard
	DialogOpen bool
	Tables     []bracket.Table
	Status     string
	Version    int64
	UpdatedAt  time.Time
	FetchedAt  time.Time

	touched uint64
}

// Fetched reports whether a snapshot fetch has completed for the entry, successfully or not.
func (e Entry) Fetched() bool {
	return !e.FetchedAt.IsZero()
}

func (e Entry) clone() Entry {
	e.Cards = slices.Clone(e.Cards)
	e.Tables = slices.Clone(e.Tables)
	return e
}

// ViewStore keeps a thread-safe view state per tournament in memory.
// Every mutation bumps the entry version so pushed refreshes can be ordered.
// With a limit, unpinned tournaments beyond it are evicted least recently updated first.
type ViewStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	pinned  map[string]struct{}
	limit   int
	seq     uint64
	now     func() time.Time
}

// Option configures a ViewStore.
type Option func(*ViewStore)

// WithLimit caps the number of unpinned tournaments kept. Zero or less means unbounded.
func WithLimit(n int) Option {
	return func(s *ViewStore) {
		s.limit = n
	}
}

// NewViewStore constructs an empty ViewStore.
func NewViewStore(opts ...Option) *ViewStore {
	s := &ViewStore{
		entries: make(map[string]*Entry),
		pinned:  make(map[string]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pin exempts ids from eviction and removal.
func (s *ViewStore) Pin(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.pinned[id] = struct{}{}
	}
}

// Pinned reports whether id is exempt from eviction.
func (s *ViewStore) Pinned(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pinned[id]
	return ok
}

// Remove forgets the state of an unpinned tournament. It reports whether an entry was dropped.
func (s *ViewStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pinned[id]; ok {
		return false
	}
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// Len returns the number of tournaments with state.
func (s *ViewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns a copy of the entry for id.
func (s *ViewStore) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// IDs lists the tournaments with state, sorted.
func (s *ViewStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetSnapshot replaces the bracket of id with a freshly fetched snapshot and clears any error.
// layout may be nil for a tournament without a main bracket.
func (s *ViewStore) SetSnapshot(id string, snap bracket.Snapshot, layout *bracket.Layout) int64 {
	return s.update(id, func(e *Entry) {
		e.Snapshot = snap
		e.Layout = layout
		e.ErrorKind = ""
		e.Cards = slices.Clone(snap.Matches)
		e.FetchedAt = s.now()
	})
}

// SetError records a failed fetch. The previous bracket is dropped so the page shows the error.
func (s *ViewStore) SetError(id, kind string) int64 {
	return s.update(id, func(e *Entry) {
		e.Snapshot = bracket.Snapshot{}
		e.Layout = nil
		e.ErrorKind = kind
		e.Cards = nil
		e.FetchedAt = s.now()
	})
}

// RemoveCard drops the card matchID if it currently has status want.
func (s *ViewStore) RemoveCard(id string, matchID bracket.ID, want bracket.CardStatus) bool {
	changed := false
	s.mutateIf(id, func(e *Entry) bool {
		idx := cardIndex(e.Cards, matchID)
		if idx < 0 || e.Cards[idx].Status != want {
			return false
		}
		e.Cards = slices.Delete(e.Cards, idx, idx+1)
		changed = true
		return true
	})
	return changed
}

// TransitionCard moves card matchID from status from to status to.
func (s *ViewStore) TransitionCard(id string, matchID bracket.ID, from, to bracket.CardStatus) bool {
	changed := false
	s.mutateIf(id, func(e *Entry) bool {
		idx := cardIndex(e.Cards, matchID)
		if idx < 0 || e.Cards[idx].Status != from {
			return false
		}
		e.Cards[idx].Status = to
		changed = true
		return true
	})
	return changed
}

// SetDialog opens the start-match dialog with tables, or closes it when open is false.
func (s *ViewStore) SetDialog(id string, open bool, tables []bracket.Table) int64 {
	return s.update(id, func(e *Entry) {
		e.DialogOpen = open
		if open {
			e.Tables = slices.Clone(tables)
		} else {
			e.Tables = nil
		}
	})
}

// ReplaceTables swaps the dialog table list if the dialog is still open.
func (s *ViewStore) ReplaceTables(id string, tables []bracket.Table) bool {
	changed := false
	s.mutateIf(id, func(e *Entry) bool {
		if !e.DialogOpen {
			return false
		}
		e.Tables = slices.Clone(tables)
		changed = true
		return true
	})
	return changed
}

// DialogOpen reports whether the start-match dialog of id is open.
func (s *ViewStore) DialogOpen(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return ok && e.DialogOpen
}

// SetStatus records the live connection status shown on the badge.
func (s *ViewStore) SetStatus(id, status string) int64 {
	return s.update(id, func(e *Entry) { e.Status = status })
}

func (s *ViewStore) update(id string, fn func(*Entry)) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.ensure(id)
	fn(e)
	e.Version++
	e.UpdatedAt = s.now()
	s.touch(e)
	s.evict(id)
	return e.Version
}

func (s *ViewStore) mutateIf(id string, fn func(*Entry) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	if fn(e) {
		e.Version++
		e.UpdatedAt = s.now()
		s.touch(e)
	}
}

func (s *ViewStore) touch(e *Entry) {
	s.seq++
	e.touched = s.seq
}

// evict drops the least recently updated unpinned entries other than keep until the limit holds.
func (s *ViewStore) evict(keep string) {
	if s.limit <= 0 {
		return
	}
	for {
		unpinned := 0
		var oldest *Entry
		for id, e := range s.entries {
			if _, ok := s.pinned[id]; ok {
				continue
			}
			unpinned++
			if id != keep && (oldest == nil || e.touched < oldest.touched) {
				oldest = e
			}
		}
		if unpinned <= s.limit || oldest == nil {
			return
		}
		delete(s.entries, oldest.TournamentID)
	}
}

func (s *ViewStore) ensure(id string) *Entry {
	e, ok := s.entries[id]
	if !ok {
		e = &Entry{TournamentID: id}
		s.entries[id] = e
	}
	return e
}

func cardIndex(cards []bracket.MatchCard, matchID bracket.ID) int {
	return slices.IndexFunc(cards, func(c bracket.MatchCard) bool { return c.ID == matchID })
}
