package vectormath

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineIdentity(t *testing.T) {
	v := []float64{0.3, -1.2, 4.5, 0.01}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-12)
}

func TestCosineSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		a := randomVector(rng, 16)
		b := randomVector(rng, 16)
		assert.Equal(t, Cosine(a, b), Cosine(b, a))
	}
}

func TestCosineZeroNormGuard(t *testing.T) {
	zero := make([]float64, 8)
	v := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, 0.0, Cosine(zero, v))
	assert.Equal(t, 0.0, Cosine(v, zero))
	assert.Equal(t, 0.0, Cosine(zero, zero))
}

func TestCosineBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a := randomVector(rng, 32)
		b := randomVector(rng, 32)
		sim := Cosine(a, b)
		require.GreaterOrEqual(t, sim, -1.0-1e-12)
		require.LessOrEqual(t, sim, 1.0+1e-12)
	}
}

func TestCosineOpposite(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-1, -2, -3}
	assert.InDelta(t, -1.0, Cosine(a, b), 1e-12)
}

func TestNormalize(t *testing.T) {
	v := []float64{3, 4}
	Normalize(v)
	assert.InDelta(t, 1.0, Norm(v), 1e-12)

	zero := []float64{0, 0}
	Normalize(zero)
	assert.Equal(t, []float64{0, 0}, zero)
}

func randomVector(rng *rand.Rand, dim int) []float64 {
	v := make([]float64, dim)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return v
}
