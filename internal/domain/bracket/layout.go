package bracket

import (
	"errors"
	"fmt"
)

// ErrNoBracket is returned when a snapshot carries no rounds.
var ErrNoBracket = errors.New("bracket: no rounds available")

// Branch tags the visual side a column is drawn on.
type Branch string

const (
	BranchLeft  Branch = "left"
	BranchRight Branch = "right"
	BranchFinal Branch = "final"
)

// Round is one labelled round of matches.
type Round struct {
	Index   int     `json:"index"`
	Label   string  `json:"label"`
	Matches []Match `json:"matches"`
}

// Column is the slice of a round drawn on one branch.
// Offset is the index of Matches[0] within the full round.
type Column struct {
	Round   int     `json:"round"`
	Branch  Branch  `json:"branch"`
	Label   string  `json:"label"`
	Offset  int     `json:"offset"`
	Matches []Match `json:"matches"`
}

// Layout is the normalised bracket: labelled rounds plus their branch columns.
type Layout struct {
	TotalRounds         int      `json:"totalRounds"`
	FinalIndex          int      `json:"finalIndex"`
	Rounds              []Round  `json:"rounds"`
	Left                []Column `json:"left"`
	Right               []Column `json:"right"`
	Final               Column   `json:"final"`
	DroppedFinalMatches int      `json:"droppedFinalMatches,omitempty"`
}

// BuildRound pairs consecutive participants into matches.
// Missing participants become BYE and missing scores stay unplayed.
func BuildRound(participants []*Participant, scores []Score) []Match {
	count := (len(participants) + 1) / 2
	matches := make([]Match, count)
	for m := range matches {
		matches[m] = Match{
			Participant1: slotAt(participants, 2*m),
			Participant2: slotAt(participants, 2*m+1),
		}
		if m < len(scores) {
			matches[m].Score = scores[m]
		}
	}
	return matches
}

func slotAt(participants []*Participant, i int) Participant {
	if i >= len(participants) || participants[i] == nil || participants[i].IsBye() {
		return Bye()
	}
	return *participants[i]
}

// BuildLayout normalises a snapshot into rounds and branch columns.
func BuildLayout(s Snapshot) (Layout, error) {
	total := len(s.Teams)
	if total == 0 {
		return Layout{}, ErrNoBracket
	}
	l := Layout{
		TotalRounds: total,
		FinalIndex:  total - 1,
		Rounds:      make([]Round, total),
	}
	for i, teams := range s.Teams {
		var scores []Score
		if i < len(s.Results) {
			scores = s.Results[i]
		}
		l.Rounds[i] = Round{Index: i, Label: RoundName(i, total), Matches: BuildRound(teams, scores)}
	}

	final := &l.Rounds[l.FinalIndex]
	switch n := len(final.Matches); {
	case n == 0:
		final.Matches = []Match{{Participant1: Bye(), Participant2: Bye()}}
	case n > 1:
		l.DroppedFinalMatches = n - 1
		final.Matches = final.Matches[:1]
	}
	l.Final = Column{Round: l.FinalIndex, Branch: BranchFinal, Label: final.Label, Matches: final.Matches}

	for _, r := range l.Rounds[:l.FinalIndex] {
		left, right, err := SplitRound(r, l.FinalIndex)
		if err != nil {
			return Layout{}, fmt.Errorf("split round %d: %w", r.Index, err)
		}
		if len(left.Matches) > 0 {
			l.Left = append(l.Left, left)
		}
		if len(right.Matches) > 0 {
			l.Right = append(l.Right, right)
		}
	}
	return l, nil
}

// Column returns the column drawn for round on branch, if any.
func (l Layout) Column(round int, branch Branch) (Column, bool) {
	if branch == BranchFinal {
		return l.Final, round == l.FinalIndex
	}
	cols := l.Left
	if branch == BranchRight {
		cols = l.Right
	}
	for _, c := range cols {
		if c.Round == round {
			return c, true
		}
	}
	return Column{}, false
}

// Participants lists every named, non-bye participant in round order without duplicates.
func (l Layout) Participants() []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(p Participant) {
		if p.IsBye() {
			return
		}
		if _, ok := seen[p.Name]; ok {
			return
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	for _, r := range l.Rounds {
		for _, m := range r.Matches {
			add(m.Participant1)
			add(m.Participant2)
		}
	}
	return names
}
