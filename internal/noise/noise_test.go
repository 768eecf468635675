package noise

import (
	"math"
	"math/rand"
	"testing"
)

func TestPerlinDeterministicPerSeed(t *testing.T) {
	a := NewPerlin(1337)
	b := NewPerlin(1337)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		x := rng.Intn(200_001) - 100_000
		z := rng.Intn(200_001) - 100_000
		if va, vb := a.Sample(x, z), b.Sample(x, z); va != vb {
			t.Fatalf("sample %d (%d,%d): %f vs %f", i, x, z, va, vb)
		}
	}
}

func TestPerlinSeedsDiffer(t *testing.T) {
	a := NewPerlin(1)
	b := NewPerlin(2)

	differs := false
	for x := 0; x < 64 && !differs; x++ {
		for z := 0; z < 64; z++ {
			if a.Sample(x*3+1, z*5+2) != b.Sample(x*3+1, z*5+2) {
				differs = true
				break
			}
		}
	}
	if !differs {
		t.Fatalf("expected different seeds to produce different fields")
	}
}

func TestPerlinStaysInShapedRange(t *testing.T) {
	field := NewPerlin(42)
	lo := 1 - Amplitude
	for x := -64; x < 64; x++ {
		for z := -64; z < 64; z++ {
			v := field.Sample(x, z)
			if v < lo || v > 1 {
				t.Fatalf("sample (%d,%d) = %f outside [%f, 1]", x, z, v, lo)
			}
		}
	}
}

func TestPerlinIsSmooth(t *testing.T) {
	field := NewPerlin(9)
	const maxStep = 0.5
	for x := -32; x < 32; x++ {
		for z := -32; z < 32; z++ {
			here := field.Sample(x, z)
			if step := math.Abs(field.Sample(x+1, z) - here); step > maxStep {
				t.Fatalf("step along x at (%d,%d) = %f", x, z, step)
			}
			if step := math.Abs(field.Sample(x, z+1) - here); step > maxStep {
				t.Fatalf("step along z at (%d,%d) = %f", x, z, step)
			}
		}
	}
}

func TestShapeMapsUnitInterval(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 0, want: 0.25},
		{in: 1, want: 1},
		{in: 0.5, want: 0.625},
	}
	for _, tt := range tests {
		if got := shape(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("shape(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
	if got := normalise(-3); got != 0 {
		t.Errorf("normalise(-3) = %f, want 0", got)
	}
	if got := normalise(3); got != 1 {
		t.Errorf("normalise(3) = %f, want 1", got)
	}
}
