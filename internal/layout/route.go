package layout

import (
	"strconv"
	"strings"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

// Connector is an orthogonal path from a match to the match it feeds.
type Connector struct {
	From       MatchRef       `json:"from"`
	To         MatchRef       `json:"to"`
	Branch     bracket.Branch `json:"branch"`
	X1         float64        `json:"x1"`
	Y1         float64        `json:"y1"`
	X2         float64        `json:"x2"`
	Y2         float64        `json:"y2"`
	Emphasized bool           `json:"emphasized"`
}

// MidX is the x coordinate of the vertical segment.
func (c Connector) MidX() float64 {
	return (c.X1 + c.X2) / 2
}

// Path renders the connector as an SVG path: horizontal, vertical, horizontal.
func (c Connector) Path() string {
	mx := c.MidX()
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, c.X1, c.Y1)
	b.WriteString(" L ")
	writePoint(&b, mx, c.Y1)
	b.WriteString(" L ")
	writePoint(&b, mx, c.Y2)
	b.WriteString(" L ")
	writePoint(&b, c.X2, c.Y2)
	return b.String()
}

func writePoint(b *strings.Builder, x, y float64) {
	b.WriteString(formatCoord(x))
	b.WriteByte(' ')
	b.WriteString(formatCoord(y))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TargetRef returns the match that source feeds. Rounds directly before the final
// feed the single final match from either branch. With a left-biased odd split a right
// branch source can point past the end of the next right column and is left unconnected.
func TargetRef(source MatchRef, finalIndex int) (MatchRef, bool) {
	if source.Branch == bracket.BranchFinal || source.Round >= finalIndex {
		return MatchRef{}, false
	}
	if source.Round+1 == finalIndex {
		return MatchRef{Round: finalIndex, Branch: bracket.BranchFinal, Index: 0}, true
	}
	return MatchRef{Round: source.Round + 1, Branch: source.Branch, Index: source.Index / 2}, true
}

// Route derives connectors from placed geometry. Sources whose target was not placed are skipped.
func Route(g Geometry) []Connector {
	var out []Connector
	for _, src := range g.Boxes {
		ref, ok := TargetRef(src.Ref, g.FinalIndex)
		if !ok {
			continue
		}
		dst, ok := g.Box(ref)
		if !ok {
			continue
		}
		c := Connector{
			From:       src.Ref,
			To:         dst.Ref,
			Branch:     src.Ref.Branch,
			Y1:         src.Rect.CenterY(),
			Y2:         dst.Rect.CenterY(),
			Emphasized: src.Decided,
		}
		if src.Ref.Branch == bracket.BranchLeft {
			c.X1, c.X2 = src.Rect.Right(), dst.Rect.X
		} else {
			c.X1, c.X2 = src.Rect.X, dst.Rect.Right()
		}
		out = append(out, c)
	}
	return out
}
