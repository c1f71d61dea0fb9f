package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindParticipants(t *testing.T) {
	l, err := BuildLayout(Snapshot{Teams: [][]*Participant{
		names("Team Liquid", "Natus Vincere", "Liquid Academy", ""),
		names("Team Liquid", "Liquid Academy"),
	}})
	require.NoError(t, err)

	got := FindParticipants(l, "liquid")
	assert.ElementsMatch(t, []string{"Team Liquid", "Liquid Academy"}, got)

	assert.Equal(t, []string{"Natus Vincere"}, FindParticipants(l, "NAVI"))
	assert.Empty(t, FindParticipants(l, "  "))
	assert.Empty(t, FindParticipants(l, "xyz"))
}
