// Package noise supplies the per-column randomness used to roughen structure
// aprons.
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
)

const (
	perlinAlpha   = 2
	perlinBeta    = 2
	perlinOctaves = 1

	// Scale is the horizontal wavelength of the apron noise in blocks.
	Scale = 8.0
	// Amplitude is the weight of the raw noise after shaping; the remainder is
	// a constant floor so the output stays within [1-Amplitude, 1].
	Amplitude = 0.75
)

// Field is a deterministic, continuous 2-D function of world columns. Fields
// must be safe for concurrent reads once constructed.
type Field interface {
	Sample(x, z int) float64
}

// Perlin is a coherent noise Field. Output lies in [1-Amplitude, 1].
type Perlin struct {
	noise *perlin.Perlin
}

// NewPerlin builds the apron noise for a world seed. The field is offset from
// the world seed so it does not correlate with terrain drawn from the same
// seed.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{
		noise: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed+1),
	}
}

// Sample returns the shaped noise value at column (x, z).
func (p *Perlin) Sample(x, z int) float64 {
	raw := p.noise.Noise2D(float64(x)/Scale, float64(z)/Scale)
	return shape(normalise(raw))
}

// normalise maps the signed perlin output into [0,1].
func normalise(v float64) float64 {
	return math.Max(0, math.Min(1, (v+1)/2))
}

func shape(v float64) float64 {
	return v*Amplitude + (1 - Amplitude)
}

// Constant is a Field returning the same value everywhere.
type Constant float64

func (c Constant) Sample(int, int) float64 {
	return float64(c)
}
