package track

import (
	"math"

	"github.com/fieldfleet/trip-recorder/internal/models"
)

// minDirectionChanges is how many genuine turns a finished track must show
// before it is believed to follow real roads.
const minDirectionChanges = 2

// Plausible judges whether a finished track looks like a vehicle actually
// driving, rather than a degenerate straight-line capture (a stationary GPS,
// or synthetic fixes). It scans consecutive heading values and counts
// direction changes; a real route around an apron or road network turns at
// least a couple of times. Tracks with fewer than cfg.HeuristicMinPoints
// points are accepted outright, since there is not enough data to judge.
func Plausible(points []models.FilteredPoint, cfg Config) bool {
	if len(points) < cfg.HeuristicMinPoints {
		return true
	}

	changes := 0
	havePrev := false
	var prevHeading float64

	for _, p := range points {
		if p.Heading == nil {
			continue
		}
		if !havePrev {
			prevHeading = *p.Heading
			havePrev = true
			continue
		}

		delta := math.Abs(*p.Heading - prevHeading)
		// deltas near 360 are wraparound across north, not turns
		if delta > cfg.TurnThresholdDeg && delta < cfg.WrapThresholdDeg {
			changes++
		}
		prevHeading = *p.Heading
	}

	return changes >= minDirectionChanges
}
