package testutil

import "github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"

// SamplePlayer returns a participant pointer for snapshot literals.
func SamplePlayer(name string) *bracket.Participant {
	return &bracket.Participant{Name: name}
}

// SampleSnapshot returns a four-player bracket with the first semifinal played,
// one scheduled card ("10") and one in-progress card ("11").
func SampleSnapshot() bracket.Snapshot {
	return bracket.Snapshot{
		Teams: [][]*bracket.Participant{
			{SamplePlayer("Alpha"), SamplePlayer("Bravo"), SamplePlayer("Charlie"), SamplePlayer("Delta")},
			{SamplePlayer("Alpha"), nil},
		},
		Results: [][]bracket.Score{
			{bracket.NewScore(2, 0), {}},
		},
		Matches: []bracket.MatchCard{
			{ID: "10", Status: bracket.CardScheduled},
			{ID: "11", Status: bracket.CardInProgress},
		},
	}
}

// SampleTables returns two free tables.
func SampleTables() []bracket.Table {
	return []bracket.Table{
		{Number: 1, Status: "AVAILABLE"},
		{Number: 2, Status: "AVAILABLE"},
	}
}
