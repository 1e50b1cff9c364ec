package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func acc(v float64) *float64 { return &v }

func TestSmoothingFilterFirstCallPassesThrough(t *testing.T) {
	f := NewSmoothingFilter(1.0)
	lat, lng := f.Filter(40.0, -3.0, acc(5))
	assert.Equal(t, 40.0, lat)
	assert.Equal(t, -3.0, lng)
}

func TestSmoothingFilterDampsTowardsPreviousEstimate(t *testing.T) {
	f := NewSmoothingFilter(1.0)
	f.Filter(40.0, -3.0, acc(5))

	lat, lng := f.Filter(40.001, -3.001, acc(5))

	// gain = 1/(1+25) ~ 0.038, so the output moves only slightly
	assert.Greater(t, lat, 40.0)
	assert.Less(t, lat, 40.001)
	assert.Less(t, lng, -3.0)
	assert.Greater(t, lng, -3.001)
}

func TestSmoothingFilterTrustsAccurateFixesMore(t *testing.T) {
	precise := NewSmoothingFilter(1.0)
	precise.Filter(40.0, -3.0, acc(1))
	pLat, _ := precise.Filter(40.001, -3.0, acc(1))

	sloppy := NewSmoothingFilter(1.0)
	sloppy.Filter(40.0, -3.0, acc(1))
	sLat, _ := sloppy.Filter(40.001, -3.0, acc(50))

	assert.Greater(t, pLat, sLat)
}

func TestSmoothingFilterConvergesWithoutOvershoot(t *testing.T) {
	f := NewSmoothingFilter(1.0)
	f.Filter(40.0, -3.0, acc(2))

	target := 40.001
	prev := 40.0
	for i := 0; i < 200; i++ {
		lat, _ := f.Filter(target, -3.0, acc(2))
		assert.LessOrEqual(t, lat, target+1e-12)
		assert.GreaterOrEqual(t, lat, prev-1e-12)
		prev = lat
	}
	assert.InDelta(t, target, prev, 1e-6)
}

func TestSmoothingFilterDefaultAccuracyWhenMissing(t *testing.T) {
	f := NewSmoothingFilter(1.0)
	f.Filter(40.0, -3.0, nil)
	lat, _ := f.Filter(41.0, -3.0, nil)

	k := 1.0 / (1.0 + defaultAccuracyMeters*defaultAccuracyMeters)
	assert.InDelta(t, 40.0+k*1.0, lat, 1e-9)
}

func TestSmoothingFilterReset(t *testing.T) {
	f := NewSmoothingFilter(1.0)
	f.Filter(40.0, -3.0, acc(5))
	f.Reset()

	// after reset the next fix passes through unchanged, no blending with
	// the previous session's estimate
	lat, lng := f.Filter(10.0, 10.0, acc(5))
	assert.Equal(t, 10.0, lat)
	assert.Equal(t, 10.0, lng)
}

func TestSmoothingFilterGainNeverExceedsOne(t *testing.T) {
	f := NewSmoothingFilter(100.0)
	f.Filter(40.0, -3.0, acc(0.001))
	lat, _ := f.Filter(41.0, -3.0, acc(0.001))
	assert.False(t, math.IsNaN(lat))
	assert.LessOrEqual(t, lat, 41.0)
}
