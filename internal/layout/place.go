// Package layout turns a bracket layout into pixel geometry: match boxes,
// connector paths and the drawing surface they are rendered on.
package layout

import (
	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
)

// Metrics are the fixed pixel dimensions used for placement.
type Metrics struct {
	MatchWidth   float64 `json:"matchWidth"`
	MatchHeight  float64 `json:"matchHeight"`
	ColumnGap    float64 `json:"columnGap"`
	MatchGap     float64 `json:"matchGap"`
	HeaderHeight float64 `json:"headerHeight"`
	Padding      float64 `json:"padding"`
}

// DefaultMetrics matches the stylesheet used by the HTML renderer.
func DefaultMetrics() Metrics {
	return Metrics{
		MatchWidth:   180,
		MatchHeight:  56,
		ColumnGap:    48,
		MatchGap:     16,
		HeaderHeight: 28,
		Padding:      24,
	}
}

// Size is a width/height pair in pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// CenterY returns the vertical centre.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// MatchRef addresses a match by round, branch and index within its column.
type MatchRef struct {
	Round  int            `json:"round"`
	Branch bracket.Branch `json:"branch"`
	Index  int            `json:"index"`
}

// Box is a placed match.
type Box struct {
	Ref     MatchRef      `json:"ref"`
	Rect    Rect          `json:"rect"`
	Match   bracket.Match `json:"match"`
	Decided bool          `json:"decided"`
}

// Header is a placed round label.
type Header struct {
	Label  string         `json:"label"`
	Branch bracket.Branch `json:"branch"`
	Rect   Rect           `json:"rect"`
}

// Geometry is the measured result of placing a layout. Producing it marks the layout as complete:
// connectors and surface sizing are derived from it and nothing else.
type Geometry struct {
	FinalIndex int      `json:"finalIndex"`
	Metrics    Metrics  `json:"metrics"`
	Boxes      []Box    `json:"boxes"`
	Headers    []Header `json:"headers"`
	Extent     Size     `json:"extent"`

	index map[MatchRef]int
}

// Box returns the placed box for ref.
func (g Geometry) Box(ref MatchRef) (Box, bool) {
	if g.index == nil {
		for _, b := range g.Boxes {
			if b.Ref == ref {
				return b, true
			}
		}
		return Box{}, false
	}
	i, ok := g.index[ref]
	if !ok {
		return Box{}, false
	}
	return g.Boxes[i], true
}

// Place positions every column of l. Left columns run outward-in from the left edge,
// the final sits in the middle and right columns mirror the left side.
// Later rounds are centred on the matches that feed them.
func Place(l bracket.Layout, m Metrics) Geometry {
	g := Geometry{FinalIndex: l.FinalIndex, Metrics: m, index: make(map[MatchRef]int)}
	if l.TotalRounds == 0 {
		return g
	}
	step := m.MatchWidth + m.ColumnGap
	top := m.Padding + m.HeaderHeight
	finalX := m.Padding + float64(l.FinalIndex)*step

	maxBottom := top
	place := func(cols []bracket.Column, x func(round int) float64) (centers []float64) {
		prev := map[int]Rect{}
		prevRound := -2
		for _, col := range cols {
			cx := x(col.Round)
			g.Headers = append(g.Headers, Header{
				Label:  col.Label,
				Branch: col.Branch,
				Rect:   Rect{X: cx, Y: m.Padding, W: m.MatchWidth, H: m.HeaderHeight},
			})
			feeders := prev
			if col.Round != prevRound+1 {
				feeders = nil
			}
			cur := make(map[int]Rect, len(col.Matches))
			next := top
			centers = centers[:0]
			for i, match := range col.Matches {
				y := next
				if c, ok := feederCenter(feeders, i); ok {
					y = max(next, c-m.MatchHeight/2)
				}
				r := Rect{X: cx, Y: y, W: m.MatchWidth, H: m.MatchHeight}
				cur[i] = r
				g.add(Box{
					Ref:     MatchRef{Round: col.Round, Branch: col.Branch, Index: i},
					Rect:    r,
					Match:   match,
					Decided: match.Decided(),
				})
				next = r.Bottom() + m.MatchGap
				centers = append(centers, r.CenterY())
				maxBottom = max(maxBottom, r.Bottom())
			}
			prev, prevRound = cur, col.Round
		}
		return centers
	}

	leftCenters := place(l.Left, func(round int) float64 {
		return m.Padding + float64(round)*step
	})
	rightCenters := place(l.Right, func(round int) float64 {
		return finalX + float64(l.FinalIndex-round)*step
	})

	finalCenter := top + m.MatchHeight/2
	var sides []float64
	for _, cs := range [][]float64{leftCenters, rightCenters} {
		if len(cs) > 0 {
			sides = append(sides, (cs[0]+cs[len(cs)-1])/2)
		}
	}
	if len(sides) > 0 {
		sum := 0.0
		for _, s := range sides {
			sum += s
		}
		finalCenter = max(finalCenter, sum/float64(len(sides)))
	}
	g.Headers = append(g.Headers, Header{
		Label:  l.Final.Label,
		Branch: bracket.BranchFinal,
		Rect:   Rect{X: finalX, Y: m.Padding, W: m.MatchWidth, H: m.HeaderHeight},
	})
	for i, match := range l.Final.Matches {
		r := Rect{X: finalX, Y: finalCenter - m.MatchHeight/2 + float64(i)*(m.MatchHeight+m.MatchGap), W: m.MatchWidth, H: m.MatchHeight}
		g.add(Box{
			Ref:     MatchRef{Round: l.FinalIndex, Branch: bracket.BranchFinal, Index: i},
			Rect:    r,
			Match:   match,
			Decided: match.Decided(),
		})
		maxBottom = max(maxBottom, r.Bottom())
	}

	g.Extent = Size{
		W: 2*m.Padding + float64(2*l.FinalIndex+1)*m.MatchWidth + float64(2*l.FinalIndex)*m.ColumnGap,
		H: maxBottom + m.Padding,
	}
	return g
}

func (g *Geometry) add(b Box) {
	g.index[b.Ref] = len(g.Boxes)
	g.Boxes = append(g.Boxes, b)
}

// feederCenter averages the centres of the two matches feeding index i.
func feederCenter(prev map[int]Rect, i int) (float64, bool) {
	var sum float64
	var n int
	for _, j := range []int{2 * i, 2*i + 1} {
		if r, ok := prev[j]; ok {
			sum += r.CenterY()
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
