package bracket

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ByeName is rendered in place of an absent participant.
const ByeName = "BYE"

// Participant is a named entrant in a match slot.
type Participant struct {
	Name string `json:"name"`
}

// Bye returns the sentinel participant used for empty slots.
func Bye() Participant {
	return Participant{Name: ByeName}
}

// IsBye reports whether the participant is the bye sentinel.
func (p Participant) IsBye() bool {
	return p.Name == "" || p.Name == ByeName
}

// Side identifies one of the two slots of a match.
type Side int

const (
	SideNone Side = iota
	SideFirst
	SideSecond
)

// Score is an ordered pair of optional non-negative points. A nil entry means the match has not been played.
type Score struct {
	S1 *int
	S2 *int
}

// NewScore builds a played score.
func NewScore(s1, s2 int) Score {
	return Score{S1: &s1, S2: &s2}
}

// Played reports whether both sides carry a value.
func (s Score) Played() bool {
	return s.S1 != nil && s.S2 != nil
}

// Winner returns the side with the strictly greater score. Ties and unplayed matches have no winner.
func (s Score) Winner() Side {
	if !s.Played() {
		return SideNone
	}
	switch {
	case *s.S1 > *s.S2:
		return SideFirst
	case *s.S2 > *s.S1:
		return SideSecond
	default:
		return SideNone
	}
}

// MarshalJSON encodes the score as a two element array with nulls for missing sides.
func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*int{s.S1, s.S2})
}

// UnmarshalJSON accepts [s1, s2]; anything else decodes as an unplayed score.
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = decodeScore(data)
	return nil
}

// Match pairs two participants with an optional score.
type Match struct {
	Participant1 Participant `json:"participant1"`
	Participant2 Participant `json:"participant2"`
	Score        Score       `json:"score"`
}

// Winner returns the winning side, if decided.
func (m Match) Winner() Side {
	return m.Score.Winner()
}

// Decided reports whether one side has strictly more points.
func (m Match) Decided() bool {
	return m.Winner() != SideNone
}

// ID is an upstream identifier that may arrive as a JSON string or number.
type ID string

// UnmarshalJSON accepts strings and integers; null decodes as empty.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// CardStatus mirrors the upstream match lifecycle.
type CardStatus string

const (
	CardScheduled  CardStatus = "SCHEDULED"
	CardInProgress CardStatus = "IN_PROGRESS"
	CardCompleted  CardStatus = "COMPLETED"
	CardCancelled  CardStatus = "CANCELLED"
)

// MatchCard is a schedule entry shown next to the bracket.
type MatchCard struct {
	ID          ID         `json:"id"`
	Status      CardStatus `json:"status"`
	TableNumber *int       `json:"tableNumber,omitempty"`
}

// Table is a playing table listed in the start-match dialog.
type Table struct {
	Number int    `json:"number"`
	Status string `json:"status"`
}

// Snapshot is the upstream bracket payload. Index i of Teams and Results is round i.
// A nil participant marks an empty slot.
type Snapshot struct {
	Teams   [][]*Participant `json:"teams"`
	Results [][]Score        `json:"results"`
	Matches []MatchCard      `json:"matches,omitempty"`
}

// UnmarshalJSON decodes leniently: malformed rounds, slots and scores degrade to empty values.
// Only a body that is not JSON at all is an error. A bare array is treated as an empty bracket.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var discard []json.RawMessage
		if err := json.Unmarshal(trimmed, &discard); err != nil {
			return err
		}
		*s = Snapshot{}
		return nil
	}
	var raw struct {
		Teams   json.RawMessage `json:"teams"`
		Results json.RawMessage `json:"results"`
		Matches json.RawMessage `json:"matches"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*s = Snapshot{
		Teams:   decodeTeams(raw.Teams),
		Results: decodeResults(raw.Results),
		Matches: decodeCards(raw.Matches),
	}
	return nil
}

func decodeTeams(data json.RawMessage) [][]*Participant {
	var rounds []json.RawMessage
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil
	}
	out := make([][]*Participant, len(rounds))
	for i, round := range rounds {
		var slots []json.RawMessage
		if err := json.Unmarshal(round, &slots); err != nil {
			continue
		}
		participants := make([]*Participant, len(slots))
		for j, slot := range slots {
			participants[j] = decodeParticipant(slot)
		}
		out[i] = participants
	}
	return out
}

func decodeParticipant(data json.RawMessage) *Participant {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		name = obj.Name
	}
	p := Participant{Name: name}
	if p.IsBye() {
		return nil
	}
	return &p
}

func decodeResults(data json.RawMessage) [][]Score {
	var rounds []json.RawMessage
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil
	}
	out := make([][]Score, len(rounds))
	for i, round := range rounds {
		var pairs []json.RawMessage
		if err := json.Unmarshal(round, &pairs); err != nil {
			continue
		}
		scores := make([]Score, len(pairs))
		for j, pair := range pairs {
			scores[j] = decodeScore(pair)
		}
		out[i] = scores
	}
	return out
}

func decodeScore(data []byte) Score {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) < 2 {
		return Score{}
	}
	return Score{S1: decodePoints(pair[0]), S2: decodePoints(pair[1])}
}

func decodePoints(data json.RawMessage) *int {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	v, err := strconv.Atoi(n.String())
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func decodeCards(data json.RawMessage) []MatchCard {
	if len(data) == 0 {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	cards := make([]MatchCard, 0, len(entries))
	for _, entry := range entries {
		var card MatchCard
		if err := json.Unmarshal(entry, &card); err != nil || card.ID == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}
