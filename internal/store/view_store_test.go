package store

import (
	"testing"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

func sampleSnapshot() bracket.Snapshot {
	return bracket.Snapshot{
		Teams: [][]*bracket.Participant{{{Name: "A"}, {Name: "B"}}},
		Matches: []bracket.MatchCard{
			{ID: "1", Status: bracket.CardScheduled},
			{ID: "2", Status: bracket.CardInProgress},
		},
	}
}

func TestViewStoreSetAndGet(t *testing.T) {
	s := NewViewStore()
	snap := sampleSnapshot()
	l, err := bracket.BuildLayout(snap)
	if err != nil {
		t.Fatalf("unexpected layout error: %v", err)
	}

	v := s.SetSnapshot("7", snap, &l)
	if v != 1 {
		t.Fatalf("expected version 1, got %d", v)
	}
	e, ok := s.Get("7")
	if !ok {
		t.Fatalf("expected entry for 7")
	}
	if e.Layout == nil || e.Layout.TotalRounds != 1 {
		t.Fatalf("unexpected layout %+v", e.Layout)
	}
	if len(e.Cards) != 2 {
		t.Fatalf("expected cards copied from snapshot, got %d", len(e.Cards))
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("expected missing id to return false")
	}
}

func TestViewStoreErrorClearsBracket(t *testing.T) {
	s := NewViewStore()
	snap := sampleSnapshot()
	l, _ := bracket.BuildLayout(snap)
	s.SetSnapshot("7", snap, &l)

	s.SetError("7", "not_found")
	e, _ := s.Get("7")
	if e.Layout != nil || len(e.Cards) != 0 {
		t.Fatalf("expected bracket cleared on error, got %+v", e)
	}
	if e.ErrorKind != "not_found" || e.Version != 2 {
		t.Fatalf("unexpected entry %+v", e)
	}

	s.SetSnapshot("7", snap, &l)
	e, _ = s.Get("7")
	if e.ErrorKind != "" {
		t.Fatalf("expected error cleared, got %q", e.ErrorKind)
	}
}

func TestViewStoreRemoveCardOnlyWhenStatusMatches(t *testing.T) {
	s := NewViewStore()
	s.SetSnapshot("7", sampleSnapshot(), nil)

	if s.RemoveCard("7", "2", bracket.CardScheduled) {
		t.Fatalf("in-progress card must not be removed as scheduled")
	}
	if !s.RemoveCard("7", "1", bracket.CardScheduled) {
		t.Fatalf("expected scheduled card removed")
	}
	if s.RemoveCard("7", "1", bracket.CardScheduled) {
		t.Fatalf("expected second removal to be a no-op")
	}
	if s.RemoveCard("other", "1", bracket.CardScheduled) {
		t.Fatalf("unknown tournament must be a no-op")
	}
	e, _ := s.Get("7")
	if len(e.Cards) != 1 || e.Cards[0].ID != "2" {
		t.Fatalf("unexpected cards %+v", e.Cards)
	}
	if e.Version != 2 {
		t.Fatalf("expected only the effective removal to bump version, got %d", e.Version)
	}
}

func TestViewStoreTransitionCard(t *testing.T) {
	s := NewViewStore()
	s.SetSnapshot("7", sampleSnapshot(), nil)

	if s.TransitionCard("7", "1", bracket.CardInProgress, bracket.CardCompleted) {
		t.Fatalf("scheduled card must not be completed")
	}
	if !s.TransitionCard("7", "2", bracket.CardInProgress, bracket.CardCompleted) {
		t.Fatalf("expected in-progress card completed")
	}
	e, _ := s.Get("7")
	if e.Cards[1].Status != bracket.CardCompleted {
		t.Fatalf("unexpected status %s", e.Cards[1].Status)
	}
}

func TestViewStoreDialogTables(t *testing.T) {
	s := NewViewStore()
	tables := []bracket.Table{{Number: 1, Status: "AVAILABLE"}}

	if s.ReplaceTables("7", tables) {
		t.Fatalf("closed dialog must not accept tables")
	}
	s.SetDialog("7", true, tables)
	if !s.DialogOpen("7") {
		t.Fatalf("expected dialog open")
	}
	if !s.ReplaceTables("7", []bracket.Table{{Number: 2, Status: "IN_USE"}}) {
		t.Fatalf("expected tables replaced")
	}
	e, _ := s.Get("7")
	if len(e.Tables) != 1 || e.Tables[0].Number != 2 {
		t.Fatalf("unexpected tables %+v", e.Tables)
	}

	s.SetDialog("7", false, nil)
	e, _ = s.Get("7")
	if e.DialogOpen || e.Tables != nil {
		t.Fatalf("expected dialog closed, got %+v", e)
	}
}

func TestViewStoreGetReturnsCopy(t *testing.T) {
	s := NewViewStore()
	s.SetSnapshot("7", sampleSnapshot(), nil)

	e, _ := s.Get("7")
	e.Cards[0].Status = bracket.CardCancelled

	again, _ := s.Get("7")
	if again.Cards[0].Status != bracket.CardScheduled {
		t.Fatalf("expected store to remain unchanged, got %s", again.Cards[0].Status)
	}
}

func TestViewStoreStatusAndIDs(t *testing.T) {
	s := NewViewStore()
	s.SetStatus("b", "connected")
	s.SetStatus("a", "connecting")

	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids %v", ids)
	}
	e, _ := s.Get("b")
	if e.Status != "connected" {
		t.Fatalf("unexpected status %q", e.Status)
	}
}

func TestViewStoreEvictsLeastRecentlyUpdatedUnpinned(t *testing.T) {
	s := NewViewStore(WithLimit(2))
	s.Pin("main")

	s.SetStatus("main", "connected")
	s.SetError("a", "not_found")
	s.SetError("b", "not_found")
	s.SetStatus("a", "off")
	s.SetError("c", "not_found")

	if _, ok := s.Get("b"); ok {
		t.Fatalf("expected least recently updated entry b to be evicted")
	}
	for _, id := range []string{"main", "a", "c"} {
		if _, ok := s.Get(id); !ok {
			t.Fatalf("expected %s to be kept", id)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("expected 2 unpinned entries plus the pinned one, got %d", s.Len())
	}
}

func TestViewStoreWithoutLimitKeepsEverything(t *testing.T) {
	s := NewViewStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		s.SetError(id, "not_found")
	}
	if s.Len() != 4 {
		t.Fatalf("expected unbounded store to keep 4 entries, got %d", s.Len())
	}
}

func TestViewStoreRemoveSkipsPinned(t *testing.T) {
	s := NewViewStore()
	s.Pin("7")
	s.SetError("7", "not_found")
	s.SetError("typo", "not_found")

	if s.Remove("7") {
		t.Fatalf("expected pinned entry to survive Remove")
	}
	if !s.Pinned("7") || s.Pinned("typo") {
		t.Fatalf("unexpected pin state")
	}
	if !s.Remove("typo") {
		t.Fatalf("expected unpinned entry to be removed")
	}
	if s.Remove("typo") {
		t.Fatalf("expected second Remove to report nothing dropped")
	}
	if _, ok := s.Get("typo"); ok {
		t.Fatalf("expected typo entry gone")
	}
}
