package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "fleet", cfg.Database)
	assert.Equal(t, 30.0, cfg.Track.MaxAccuracyMeters)
	assert.Equal(t, 150.0, cfg.Track.MaxSpeedKmh)
	assert.Equal(t, 1.0, cfg.Track.FilterVariance)
	assert.Equal(t, 10, cfg.Track.HeuristicMinPoints)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TRACK_MAX_ACCURACY_M", "50")
	t.Setenv("TRACK_MAX_SPEED_KMH", "60")
	t.Setenv("TRACK_HEURISTIC_MIN_POINTS", "25")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 50.0, cfg.Track.MaxAccuracyMeters)
	assert.Equal(t, 60.0, cfg.Track.MaxSpeedKmh)
	assert.Equal(t, 25, cfg.Track.HeuristicMinPoints)
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("TRACK_MAX_ACCURACY_M", "not-a-number")

	cfg := Load()
	assert.Equal(t, 30.0, cfg.Track.MaxAccuracyMeters)
}
