package layout

import (
	"fmt"
	"math"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// Allowed ranges for the tunable forces
const (
	MinLinkDistance   = 10.0
	MaxLinkDistance   = 200.0
	MinChargeStrength = -500.0
	MaxChargeStrength = 0.0
	MinCenterStrength = 0.0
	MaxCenterStrength = 1.0
	MinCollidePadding = 0.0
	MaxCollidePadding = 50.0
)

// Params are the live-tunable force parameters plus the canvas size used for centering
type Params struct {
	LinkDistance   float64 `mapstructure:"link_distance"`
	ChargeStrength float64 `mapstructure:"charge_strength"`
	CenterStrength float64 `mapstructure:"center_strength"`
	CollidePadding float64 `mapstructure:"collide_padding"`

	// Width and Height are the world-space canvas size; forces center on (Width/2, Height/2)
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// DefaultParams returns the default force parameters
func DefaultParams() Params {
	return Params{
		LinkDistance:   50,
		ChargeStrength: -100,
		CenterStrength: 0.1,
		CollidePadding: 2,
		Width:          800,
		Height:         600,
	}
}

// Clamp returns a copy with every force parameter forced into its allowed range
func (p Params) Clamp() Params {
	p.LinkDistance = clamp(p.LinkDistance, MinLinkDistance, MaxLinkDistance)
	p.ChargeStrength = clamp(p.ChargeStrength, MinChargeStrength, MaxChargeStrength)
	p.CenterStrength = clamp(p.CenterStrength, MinCenterStrength, MaxCenterStrength)
	p.CollidePadding = clamp(p.CollidePadding, MinCollidePadding, MaxCollidePadding)
	return p
}

// Validate checks that every parameter is finite and inside its range
func (p Params) Validate() error {
	fields := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"link_distance", p.LinkDistance, MinLinkDistance, MaxLinkDistance},
		{"charge_strength", p.ChargeStrength, MinChargeStrength, MaxChargeStrength},
		{"center_strength", p.CenterStrength, MinCenterStrength, MaxCenterStrength},
		{"collide_padding", p.CollidePadding, MinCollidePadding, MaxCollidePadding},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || f.v < f.min || f.v > f.max {
			return fmt.Errorf("%w: %s=%v not in [%v, %v]", domain.ErrInvalidParams, f.name, f.v, f.min, f.max)
		}
	}
	if !(p.Width > 0) || !(p.Height > 0) || math.IsInf(p.Width, 0) || math.IsInf(p.Height, 0) {
		return fmt.Errorf("%w: canvas %vx%v", domain.ErrInvalidParams, p.Width, p.Height)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}
