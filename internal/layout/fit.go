package layout

import (
	"fmt"
	"strings"
)

// Mode selects how the surface relates to the viewport.
type Mode string

const (
	// ModeNative renders at scale 1.
	ModeNative Mode = "native"
	// ModeFit scales down to fit the viewport and centres horizontally.
	ModeFit Mode = "fit"
)

// ParseMode maps a configuration value onto a Mode. Empty means native.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNative:
		return ModeNative, nil
	case ModeFit:
		return ModeFit, nil
	default:
		return "", fmt.Errorf("unknown render mode %q", s)
	}
}

// Surface is the sized drawing area for the connector overlay.
// Coordinates inside it stay in unscaled geometry space; Scale and OffsetX apply to the wrapper.
type Surface struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ViewBox string  `json:"viewBox"`
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	Mode    Mode    `json:"mode"`
}

// Fit sizes the surface for extent within viewport. A zero viewport dimension is unconstrained.
// Fit is a pure function of its inputs.
func Fit(extent, viewport Size, mode Mode) Surface {
	w := max(extent.W, 0)
	h := max(extent.H, viewport.H, 0)
	s := Surface{
		Width:   w,
		Height:  h,
		ViewBox: fmt.Sprintf("0 0 %s %s", formatCoord(w), formatCoord(h)),
		Scale:   1,
		Mode:    ModeNative,
	}
	if mode != ModeFit {
		return s
	}
	s.Mode = ModeFit
	if viewport.W > 0 && w > 0 {
		s.Scale = min(s.Scale, viewport.W/w)
	}
	if viewport.H > 0 && extent.H > 0 {
		s.Scale = min(s.Scale, viewport.H/extent.H)
	}
	if viewport.W > 0 {
		s.OffsetX = max(0, (viewport.W-w*s.Scale)/2)
	}
	return s
}
