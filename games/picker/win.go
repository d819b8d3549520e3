/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package picker

const (
	winRadiusStep   = 1.0
	winRadiusCap    = 80.0
	markerRadius    = 2.0
	markerLineWidth = 5.0
	markerColor     = "#000000"
)

// WinPhase grows the victory disc and holds the published result.
type WinPhase struct {
	announcing bool
	x, y       float64
	color      Color
	radius     float64
	result     string
}

func (w WinPhase) Announcing() bool {
	return w.announcing
}

// Result is the published text, empty until the animation completes.
func (w WinPhase) Result() string {
	return w.result
}

func (w WinPhase) Shown() bool {
	return w.result != ""
}

func (w *WinPhase) begin(winner TouchState) {
	*w = WinPhase{
		announcing: true,
		x:          winner.X,
		y:          winner.Y,
		color:      winner.Color,
	}
}

// step draws one frame and grows the disc. It returns true on the frame
// that completes the animation; the result is set only then.
func (w *WinPhase) step(s Surface, scale float64) bool {
	if !w.announcing {
		return false
	}

	s.FillDisc(w.x, w.y, w.radius*scale, w.color.Hex)
	s.StrokeCircle(w.x, w.y, markerRadius*scale, markerLineWidth, markerColor)

	w.radius += winRadiusStep
	if w.radius <= winRadiusCap {
		return false
	}

	w.announcing = false
	w.result = w.color.Name + " wins!"
	return true
}

func (w *WinPhase) reset() {
	*w = WinPhase{}
}
