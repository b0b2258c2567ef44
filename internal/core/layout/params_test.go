package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/Ning0612/Filegraph/internal/domain"
)

func TestParams_Clamp(t *testing.T) {
	p := Params{LinkDistance: 1000, ChargeStrength: -9000, CenterStrength: 2, CollidePadding: -1, Width: 10, Height: 10}
	got := p.Clamp()
	want := Params{LinkDistance: MaxLinkDistance, ChargeStrength: MinChargeStrength, CenterStrength: 1, CollidePadding: 0, Width: 10, Height: 10}
	if got != want {
		t.Errorf("Clamp() = %+v, want %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("clamped params invalid: %v", err)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
		valid  bool
	}{
		{"defaults", func(*Params) {}, true},
		{"link too short", func(p *Params) { p.LinkDistance = 5 }, false},
		{"positive charge", func(p *Params) { p.ChargeStrength = 1 }, false},
		{"nan center", func(p *Params) { p.CenterStrength = math.NaN() }, false},
		{"zero width", func(p *Params) { p.Width = 0 }, false},
		{"infinite height", func(p *Params) { p.Height = math.Inf(1) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() = %v", err)
			}
			if !tt.valid && !errors.Is(err, domain.ErrInvalidParams) {
				t.Errorf("Validate() = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestEngine_SetParamsRejectsNaN(t *testing.T) {
	e := New(DefaultParams())
	p := DefaultParams()
	p.LinkDistance = math.NaN()
	if err := e.SetParams(p); !errors.Is(err, domain.ErrInvalidParams) {
		t.Errorf("SetParams() = %v, want ErrInvalidParams", err)
	}
	if e.Params() != DefaultParams() {
		t.Error("rejected params were applied")
	}
}
