package engine

import (
	"fmt"
)

// Parameter bounds accepted by the engine.
const (
	MinDimension = 64
	MaxDimension = 4096
	MinSteps     = 1
	MaxSteps     = 100
)

// Generation defaults (FLUX.2 klein).
const (
	DefaultWidth    = 256
	DefaultHeight   = 256
	DefaultSteps    = 4
	DefaultGuidance = 1.0
	DefaultStrength = 0.75
)

// Params are the knobs for one generation call. They are passed by
// value into the engine and never mutated after the call starts.
type Params struct {
	// Width and Height are the output size in pixels.
	Width  int
	Height int

	// NumSteps is the number of sampling steps.
	NumSteps int

	// GuidanceScale is the classifier-free guidance scale.
	GuidanceScale float64

	// Seed is the requested sampler seed; -1 means pick one.
	// The resolved seed is set on the context via SetSeed.
	Seed int64

	// Strength is the img2img denoising strength (0.0 keeps the input
	// image, 1.0 ignores it). Only used by Img2Img.
	Strength float64
}

// DefaultParams returns Params with the generation defaults and a
// random (-1) seed.
func DefaultParams() Params {
	return Params{
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		NumSteps:      DefaultSteps,
		GuidanceScale: DefaultGuidance,
		Seed:          -1,
		Strength:      DefaultStrength,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.Width < MinDimension || p.Width > MaxDimension {
		return fmt.Errorf("width must be between %d and %d, got %d", MinDimension, MaxDimension, p.Width)
	}
	if p.Height < MinDimension || p.Height > MaxDimension {
		return fmt.Errorf("height must be between %d and %d, got %d", MinDimension, MaxDimension, p.Height)
	}
	if p.NumSteps < MinSteps || p.NumSteps > MaxSteps {
		return fmt.Errorf("steps must be between %d and %d, got %d", MinSteps, MaxSteps, p.NumSteps)
	}
	if p.Strength < 0.0 || p.Strength > 1.0 {
		return fmt.Errorf("strength must be between 0.0 and 1.0, got %g", p.Strength)
	}
	return nil
}
