package bracket

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(ns ...string) []*Participant {
	out := make([]*Participant, len(ns))
	for i, n := range ns {
		if n == "" {
			continue
		}
		out[i] = &Participant{Name: n}
	}
	return out
}

func TestBuildRoundMatchCount(t *testing.T) {
	for n := 0; n <= 9; n++ {
		ps := make([]*Participant, n)
		for i := range ps {
			ps[i] = &Participant{Name: fmt.Sprintf("P%d", i)}
		}
		matches := BuildRound(ps, nil)
		require.Len(t, matches, (n+1)/2, "n=%d", n)
		for _, m := range matches {
			assert.NotEmpty(t, m.Participant1.Name)
			assert.NotEmpty(t, m.Participant2.Name)
			assert.False(t, m.Score.Played())
		}
	}
}

func TestBuildRoundZeroParticipants(t *testing.T) {
	assert.Empty(t, BuildRound(nil, []Score{NewScore(1, 0)}))
}

func TestBuildRoundFillsByesAndScores(t *testing.T) {
	matches := BuildRound(names("A", "", "C"), []Score{NewScore(0, 2)})
	require.Len(t, matches, 2)
	assert.Equal(t, "A", matches[0].Participant1.Name)
	assert.True(t, matches[0].Participant2.IsBye())
	assert.Equal(t, SideSecond, matches[0].Winner())
	assert.Equal(t, "C", matches[1].Participant1.Name)
	assert.Equal(t, ByeName, matches[1].Participant2.Name)
	assert.False(t, matches[1].Decided())
}

func TestBuildLayoutEmpty(t *testing.T) {
	_, err := BuildLayout(Snapshot{})
	assert.ErrorIs(t, err, ErrNoBracket)
}

func TestBuildLayoutThreeParticipants(t *testing.T) {
	s := Snapshot{
		Teams:   [][]*Participant{names("A", "B", "C"), names("A", "C")},
		Results: [][]Score{{NewScore(2, 1)}},
	}
	l, err := BuildLayout(s)
	require.NoError(t, err)

	assert.Equal(t, 2, l.TotalRounds)
	assert.Equal(t, 1, l.FinalIndex)
	require.Len(t, l.Rounds[0].Matches, 2)
	assert.Equal(t, "준결승", l.Rounds[0].Label)
	assert.Equal(t, "결승", l.Rounds[1].Label)

	require.Len(t, l.Left, 1)
	require.Len(t, l.Right, 1)
	assert.Equal(t, "A", l.Left[0].Matches[0].Participant1.Name)
	assert.Equal(t, "B", l.Left[0].Matches[0].Participant2.Name)
	assert.True(t, l.Left[0].Matches[0].Decided())
	assert.Equal(t, "C", l.Right[0].Matches[0].Participant1.Name)
	assert.True(t, l.Right[0].Matches[0].Participant2.IsBye())
	assert.Equal(t, 1, l.Right[0].Offset)

	require.Len(t, l.Final.Matches, 1)
	assert.Equal(t, BranchFinal, l.Final.Branch)
	assert.Equal(t, "A", l.Final.Matches[0].Participant1.Name)
	assert.Equal(t, "C", l.Final.Matches[0].Participant2.Name)
	assert.False(t, l.Final.Matches[0].Decided())
}

func TestBuildLayoutNormalisesFinal(t *testing.T) {
	l, err := BuildLayout(Snapshot{Teams: [][]*Participant{names("A", "B"), nil}})
	require.NoError(t, err)
	require.Len(t, l.Final.Matches, 1)
	assert.True(t, l.Final.Matches[0].Participant1.IsBye())
	assert.True(t, l.Final.Matches[0].Participant2.IsBye())

	l, err = BuildLayout(Snapshot{Teams: [][]*Participant{names("A", "B", "C", "D")}})
	require.NoError(t, err)
	assert.Len(t, l.Final.Matches, 1)
	assert.Equal(t, 1, l.DroppedFinalMatches)
	assert.Empty(t, l.Left)
	assert.Empty(t, l.Right)
}

func TestBuildLayoutOmitsEmptyColumns(t *testing.T) {
	l, err := BuildLayout(Snapshot{Teams: [][]*Participant{names("A"), names("A")}})
	require.NoError(t, err)
	assert.Len(t, l.Left, 1)
	assert.Empty(t, l.Right)
}

func TestBuildLayoutIsIdempotent(t *testing.T) {
	s := Snapshot{
		Teams:   [][]*Participant{names("A", "B", "C", "D", "E", "F", "G"), names("A", "D", "E"), names("A", "E")},
		Results: [][]Score{{NewScore(3, 0), NewScore(1, 2)}},
	}
	first, err := BuildLayout(s)
	require.NoError(t, err)
	second, err := BuildLayout(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLayoutColumnLookup(t *testing.T) {
	l, err := BuildLayout(Snapshot{Teams: [][]*Participant{names("A", "B", "C", "D"), names("A", "C")}})
	require.NoError(t, err)

	c, ok := l.Column(0, BranchRight)
	require.True(t, ok)
	assert.Equal(t, "C", c.Matches[0].Participant1.Name)

	_, ok = l.Column(1, BranchLeft)
	assert.False(t, ok)

	f, ok := l.Column(1, BranchFinal)
	require.True(t, ok)
	assert.Equal(t, BranchFinal, f.Branch)
}
