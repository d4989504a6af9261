package experiments

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalQuantile(t *testing.T) {
	assert.InDelta(t, 0.0, normalQuantile(0.5), 1e-9)
	assert.InDelta(t, 1.959964, normalQuantile(0.975), 1e-5)
	assert.InDelta(t, -1.959964, normalQuantile(0.025), 1e-5)
	assert.InDelta(t, 2.326348, normalQuantile(0.99), 1e-5)
	assert.True(t, math.IsNaN(normalQuantile(0)))
	assert.True(t, math.IsNaN(normalQuantile(1)))
}

func TestMeanCI(t *testing.T) {
	mean, low, high := meanCI([]float64{10, 12, 14, 16, 18}, 0.95)
	assert.InDelta(t, 14.0, mean, 1e-9)
	assert.Less(t, low, mean)
	assert.Greater(t, high, mean)
	assert.InDelta(t, mean-low, high-mean, 1e-9, "interval is symmetric")
}

func TestMeanCIDegenerateCases(t *testing.T) {
	mean, low, high := meanCI(nil, 0.95)
	assert.Zero(t, mean)
	assert.Zero(t, low)
	assert.Zero(t, high)

	mean, low, high = meanCI([]float64{42}, 0.95)
	assert.Equal(t, 42.0, mean)
	assert.Equal(t, 42.0, low)
	assert.Equal(t, 42.0, high)
}
