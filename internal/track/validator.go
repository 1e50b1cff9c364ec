package track

import (
	"github.com/fieldfleet/trip-recorder/internal/geo"
	"github.com/fieldfleet/trip-recorder/internal/models"
)

// Validator decides whether a candidate point is trustworthy enough to join
// a track. It is a pure predicate: rejected points are simply not appended,
// which keeps the incremental distance accumulator deterministic.
type Validator struct {
	cfg Config
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// IsValid applies the rejection rules in order against the last accepted
// point. The first point of a session is always accepted.
func (v *Validator) IsValid(candidate models.FilteredPoint, history []models.FilteredPoint) bool {
	if len(history) == 0 {
		return true
	}

	if candidate.Accuracy != nil && *candidate.Accuracy > v.cfg.MaxAccuracyMeters {
		return false
	}

	last := history[len(history)-1]

	dt := float64(candidate.Timestamp-last.Timestamp) / 1000
	if dt <= 0 {
		// non-monotonic or duplicate timestamp
		return false
	}

	distance := geo.HaversineKm(last.Latitude, last.Longitude, candidate.Latitude, candidate.Longitude)

	impliedSpeedKmh := distance / dt * 3600
	if impliedSpeedKmh > v.cfg.MaxSpeedKmh {
		return false
	}

	// moved less than MinMoveKm in over JitterSeconds: stationary jitter
	// that would inflate the point count without adding signal
	if distance < v.cfg.MinMoveKm && dt > v.cfg.JitterSeconds {
		return false
	}

	return true
}
