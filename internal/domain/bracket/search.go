package bracket

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FindParticipants returns the participant names matching query, best match first.
// Matching is case-insensitive and unicode-normalised; an empty query matches nothing.
func FindParticipants(l Layout, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(query, l.Participants())
	sort.Sort(ranks)
	names := make([]string, 0, len(ranks))
	for _, r := range ranks {
		names = append(names, r.Target)
	}
	return names
}
