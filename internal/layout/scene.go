package layout

import "github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"

// Scene bundles everything a renderer needs for one viewport.
type Scene struct {
	Geometry   Geometry    `json:"geometry"`
	Connectors []Connector `json:"connectors"`
	Surface    Surface     `json:"surface"`
}

// Compose runs placement, routing and fitting in order. Call it again whenever the viewport changes.
func Compose(l bracket.Layout, m Metrics, viewport Size, mode Mode) Scene {
	g := Place(l, m)
	return Scene{
		Geometry:   g,
		Connectors: Route(g),
		Surface:    Fit(g.Extent, viewport, mode),
	}
}
