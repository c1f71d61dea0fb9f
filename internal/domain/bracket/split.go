package bracket

import (
	"errors"
	"slices"
)

// ErrFinalRoundSplit is returned when asked to split the final round.
var ErrFinalRoundSplit = errors.New("bracket: final round is never split")

// Split partitions matches into the left and right branches.
// The left branch takes the first ceil(n/2) matches, so an odd count puts the extra match on the left.
func Split(matches []Match) (left, right []Match) {
	half := (len(matches) + 1) / 2
	return slices.Clone(matches[:half]), slices.Clone(matches[half:])
}

// SplitRound splits a non-final round into its two branch columns.
func SplitRound(r Round, finalIndex int) (left, right Column, err error) {
	if r.Index >= finalIndex {
		return Column{}, Column{}, ErrFinalRoundSplit
	}
	lm, rm := Split(r.Matches)
	left = Column{Round: r.Index, Branch: BranchLeft, Label: r.Label, Offset: 0, Matches: lm}
	right = Column{Round: r.Index, Branch: BranchRight, Label: r.Label, Offset: len(lm), Matches: rm}
	return left, right, nil
}
