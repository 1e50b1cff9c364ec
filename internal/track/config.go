package track

// Config groups the tuning knobs for fix filtering and trip plausibility.
// The defaults are calibrated for airport ground vehicles; they are loaded
// from the environment so deployments with different vehicle classes can
// retune without a code change.
type Config struct {
	MaxAccuracyMeters  float64 // fixes with worse horizontal accuracy are dropped
	MaxSpeedKmh        float64 // implied speeds above this are treated as GPS jumps
	MinMoveKm          float64 // movement below this over JitterSeconds is stationary noise
	JitterSeconds      float64 // see MinMoveKm
	FilterVariance     float64 // smoothing filter process variance; lower trusts fixes less
	HeuristicMinPoints int     // tracks shorter than this are not judged for plausibility
	TurnThresholdDeg   float64 // heading delta that counts as a direction change
	WrapThresholdDeg   float64 // deltas at or above this are 0/360 wraparound, not turns
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAccuracyMeters:  30,
		MaxSpeedKmh:        150,
		MinMoveKm:          0.001, // 1 m
		JitterSeconds:      1,
		FilterVariance:     1.0,
		HeuristicMinPoints: 10,
		TurnThresholdDeg:   20,
		WrapThresholdDeg:   340,
	}
}
