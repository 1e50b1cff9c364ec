package track

import "math"

// defaultAccuracyMeters is assumed when a fix carries no accuracy estimate.
const defaultAccuracyMeters = 10.0

// SmoothingFilter damps high-frequency GPS jitter with a steady-state
// Kalman-style blend per coordinate axis. The gain shrinks as the reported
// accuracy worsens, so imprecise fixes pull the estimate less. One instance
// belongs to one recording session and must be Reset between sessions.
type SmoothingFilter struct {
	variance float64
	lastLat  float64
	lastLng  float64
	primed   bool
}

// NewSmoothingFilter creates a filter with the given process variance.
// Lower variance trusts incoming fixes less.
func NewSmoothingFilter(variance float64) *SmoothingFilter {
	return &SmoothingFilter{variance: variance}
}

// Filter blends a new coordinate with the previous estimate and returns the
// smoothed pair. The first call after Reset passes the input through
// unchanged, since there is no prior estimate to blend with.
func (f *SmoothingFilter) Filter(lat, lng float64, accuracy *float64) (float64, float64) {
	if !f.primed {
		f.lastLat = lat
		f.lastLng = lng
		f.primed = true
		return lat, lng
	}

	acc := defaultAccuracyMeters
	if accuracy != nil {
		acc = *accuracy
	}

	k := math.Min(1, f.variance/(f.variance+acc*acc))

	f.lastLat += k * (lat - f.lastLat)
	f.lastLng += k * (lng - f.lastLng)

	return f.lastLat, f.lastLng
}

// Reset clears the stored estimate. Called at the start of every session so
// state never leaks across trips.
func (f *SmoothingFilter) Reset() {
	f.lastLat = 0
	f.lastLng = 0
	f.primed = false
}
