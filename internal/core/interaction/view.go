package interaction

import "math"

// Default zoom extent
const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 8.0
)

// View maps world coordinates to screen coordinates: screen = world*Scale + T.
// It never feeds back into the simulation.
type View struct {
	TX, TY float64
	Scale  float64

	minScale, maxScale float64
}

// NewView returns the identity transform with the given zoom extent.
// A non-positive or inverted extent falls back to the defaults.
func NewView(minScale, maxScale float64) View {
	if !(minScale > 0) || !(maxScale >= minScale) {
		minScale, maxScale = DefaultMinScale, DefaultMaxScale
	}
	return View{Scale: 1, minScale: minScale, maxScale: maxScale}
}

// Extent returns the allowed scale range
func (v View) Extent() (float64, float64) {
	return v.minScale, v.maxScale
}

// WorldToScreen maps a simulation position to the screen
func (v View) WorldToScreen(x, y float64) (float64, float64) {
	return x*v.Scale + v.TX, y*v.Scale + v.TY
}

// ScreenToWorld maps a pointer position to simulation space
func (v View) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx - v.TX) / v.Scale, (sy - v.TY) / v.Scale
}

// Pan shifts the view by a screen-space delta
func (v *View) Pan(dx, dy float64) {
	v.TX += dx
	v.TY += dy
}

// ZoomAt multiplies the scale by factor, clamped to the extent, keeping the
// world point under (sx, sy) fixed on screen.
func (v *View) ZoomAt(sx, sy, factor float64) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return
	}
	wx, wy := v.ScreenToWorld(sx, sy)
	v.Scale = math.Max(v.minScale, math.Min(v.maxScale, v.Scale*factor))
	v.TX = sx - wx*v.Scale
	v.TY = sy - wy*v.Scale
}

// Reset restores the identity transform
func (v *View) Reset() {
	v.TX, v.TY, v.Scale = 0, 0, 1
}
