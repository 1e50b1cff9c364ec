package track

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/fieldfleet/trip-recorder/internal/db"
	"github.com/fieldfleet/trip-recorder/internal/geo"
	"github.com/fieldfleet/trip-recorder/internal/lease"
	"github.com/fieldfleet/trip-recorder/internal/models"
)

// State is a trip session's position in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
	StateSaved     State = "saved"
	StateCancelled State = "cancelled"
)

var (
	// ErrLeaseUnavailable means another operator holds the vehicle.
	ErrLeaseUnavailable = errors.New("vehicle is in use by another operator")
	// ErrAlreadyRecording means Start was called with a session underway.
	ErrAlreadyRecording = errors.New("a trip is already being recorded")
	// ErrNotRecording means the operation needs a Recording session.
	ErrNotRecording = errors.New("no trip is being recorded")
	// ErrNotStopped means the operation needs a Stopped session.
	ErrNotStopped = errors.New("trip is not stopped")
	// ErrUnsavedTrip means Start was called while a stopped trip is still
	// pending. Overwriting it would strand the old vehicle's lease with no
	// session left to release it.
	ErrUnsavedTrip = errors.New("stopped trip must be saved or cancelled before starting a new one")
	// ErrInsufficientPoints means fewer than two points were captured.
	ErrInsufficientPoints = errors.New("not enough points to make a meaningful trip")
	// ErrImplausibleTrip means the captured track barely changes heading
	// and needs explicit operator confirmation before saving.
	ErrImplausibleTrip = errors.New("captured track looks like a straight line; confirm before saving")
)

// Session is the in-memory state of one recording, owned exclusively by its
// Tracker. The point sequence is append-only while recording and the
// distance total is strictly incremental.
type Session struct {
	ID            string
	VehicleID     string
	Registration  string
	Holder        string
	StartOdometer int
	Points        []models.FilteredPoint
	DistanceKm    float64
	StartedAt     time.Time
	StoppedAt     time.Time
	State         State
}

// Stats is a read-only snapshot for live display.
type Stats struct {
	State          State   `json:"state"`
	VehicleID      string  `json:"vehicle_id"`
	DistanceKm     float64 `json:"distance_km"`
	PointCount     int     `json:"point_count"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// SaveRequest carries the trip metadata the operator fills in at save time.
// Force acknowledges an implausible-track warning from a previous attempt.
type SaveRequest struct {
	FuelLevel    models.FuelLevel
	Observations string
	Force        bool
}

// Tracker orchestrates one operator's recording session: lease acquisition,
// the fix pipeline (smooth, validate, accumulate) and the final save. All
// methods are safe for concurrent use; fixes are processed one at a time in
// arrival order.
type Tracker struct {
	cfg       Config
	leases    *lease.Manager
	trips     db.TripStore
	vehicles  db.VehicleStore
	filter    *SmoothingFilter
	validator *Validator

	mu      sync.Mutex
	session *Session
}

// NewTracker creates a tracker for one operator device.
func NewTracker(cfg Config, leases *lease.Manager, trips db.TripStore, vehicles db.VehicleStore) *Tracker {
	return &Tracker{
		cfg:       cfg,
		leases:    leases,
		trips:     trips,
		vehicles:  vehicles,
		filter:    NewSmoothingFilter(cfg.FilterVariance),
		validator: NewValidator(cfg),
	}
}

// Start acquires the vehicle lease and opens a Recording session. The
// vehicle's last odometer reading seeds the trip's start reading. A stopped
// trip blocks Start until it is saved or cancelled.
func (t *Tracker) Start(ctx context.Context, vehicleID, holder string) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		switch t.session.State {
		case StateRecording:
			return nil, ErrAlreadyRecording
		case StateStopped:
			return nil, ErrUnsavedTrip
		}
	}

	acq, err := t.leases.Acquire(ctx, vehicleID, holder)
	if err != nil {
		return nil, err
	}
	if acq.Status == lease.StatusConflict {
		return nil, fmt.Errorf("%w (held by %s)", ErrLeaseUnavailable, acq.Vehicle.InUseBy)
	}

	t.filter.Reset()
	t.session = &Session{
		ID:            uuid.NewString(),
		VehicleID:     vehicleID,
		Registration:  acq.Vehicle.Registration,
		Holder:        holder,
		StartOdometer: acq.Vehicle.Odometer,
		Points:        nil,
		DistanceKm:    0,
		StartedAt:     time.Now(),
		State:         StateRecording,
	}

	log.WithFields(log.Fields{
		"session": t.session.ID,
		"vehicle": vehicleID,
		"holder":  holder,
	}).Info("trip recording started")

	return t.snapshot(), nil
}

// OnFix feeds one raw fix through the pipeline: smooth the coordinates,
// validate against the last accepted point, then append and accumulate
// distance. Fixes that fail validation are dropped silently; that is
// routine filtering, not an error.
func (t *Tracker) OnFix(fix models.LocationFix) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.session.State != StateRecording {
		return ErrNotRecording
	}

	lat, lng := t.filter.Filter(fix.Latitude, fix.Longitude, fix.Accuracy)
	candidate := models.FilteredPoint{
		Latitude:  lat,
		Longitude: lng,
		Timestamp: fix.Timestamp,
		Accuracy:  fix.Accuracy,
		Speed:     fix.Speed,
		Heading:   fix.Heading,
	}

	if !t.validator.IsValid(candidate, t.session.Points) {
		log.WithFields(log.Fields{
			"session": t.session.ID,
			"time":    fix.Timestamp,
		}).Debug("fix dropped by validator")
		return nil
	}

	if n := len(t.session.Points); n > 0 {
		prev := t.session.Points[n-1]
		t.session.DistanceKm += geo.HaversineKm(
			prev.Latitude, prev.Longitude, candidate.Latitude, candidate.Longitude)
	}
	t.session.Points = append(t.session.Points, candidate)
	return nil
}

// Stop ends fix collection and transitions to Stopped. If fewer than two
// points were captured it still transitions, but reports
// ErrInsufficientPoints so the operator can be told the trip is too short
// to save (they may still cancel).
func (t *Tracker) Stop() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.session.State != StateRecording {
		return nil, ErrNotRecording
	}

	t.session.State = StateStopped
	t.session.StoppedAt = time.Now()

	log.WithFields(log.Fields{
		"session":  t.session.ID,
		"points":   len(t.session.Points),
		"distance": t.session.DistanceKm,
	}).Info("trip recording stopped")

	if len(t.session.Points) < 2 {
		return t.snapshot(), ErrInsufficientPoints
	}
	return t.snapshot(), nil
}

// Save assembles the Trip aggregate, persists it, rolls the vehicle's
// odometer and fuel level forward and releases the lease in the same
// partial write. If the captured track fails the road-following heuristic
// and req.Force is false, nothing happens and the caller must confirm with
// the operator. If persisting the trip fails the session stays Stopped and
// the lease stays held, so the operator can retry without losing
// exclusivity.
func (t *Tracker) Save(ctx context.Context, req SaveRequest) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.session.State != StateStopped {
		return "", ErrNotStopped
	}
	if len(t.session.Points) < 2 {
		return "", ErrInsufficientPoints
	}
	if !models.IsValidFuelLevel(req.FuelLevel) {
		return "", fmt.Errorf("invalid fuel level %q", req.FuelLevel)
	}

	if !Plausible(t.session.Points, t.cfg) && !req.Force {
		return "", ErrImplausibleTrip
	}

	s := t.session
	endOdometer := s.StartOdometer + int(math.Round(s.DistanceKm))

	observations := fmt.Sprintf("GPS capture - distance %.2f km - duration %s",
		s.DistanceKm, s.StoppedAt.Sub(s.StartedAt).Round(time.Second))
	if req.Observations != "" {
		observations = req.Observations + " | " + observations
	}

	trip := models.Trip{
		VehicleID:     s.VehicleID,
		Registration:  s.Registration,
		Operator:      s.Holder,
		StartTime:     s.StartedAt,
		EndTime:       s.StoppedAt,
		StartOdometer: s.StartOdometer,
		EndOdometer:   endOdometer,
		FuelLevel:     req.FuelLevel,
		Observations:  observations,
		Points:        s.Points,
		DistanceKm:    s.DistanceKm,
	}

	tripID, err := t.trips.InsertTrip(ctx, trip)
	if err != nil {
		return "", fmt.Errorf("saving trip: %w", err)
	}

	s.State = StateSaved

	held := false
	nobody := ""
	update := db.VehicleUpdate{
		InUse:     &held,
		InUseBy:   &nobody,
		Odometer:  &endOdometer,
		FuelLevel: &req.FuelLevel,
	}
	if err := t.vehicles.UpdateVehicleFields(ctx, s.VehicleID, update); err != nil {
		// The trip is durably recorded; only the odometer roll-forward and
		// lease clear failed. Surface it so an admin can force-release.
		log.WithError(err).WithFields(log.Fields{
			"session": s.ID,
			"vehicle": s.VehicleID,
		}).Error("vehicle update after save failed; lease may still be held")
	}

	log.WithFields(log.Fields{
		"session":  s.ID,
		"trip":     tripID,
		"distance": s.DistanceKm,
	}).Info("trip saved")

	return tripID, nil
}

// Cancel discards the session and releases the lease. Valid from Recording
// or Stopped. A store failure during release leaves the session untouched
// so the operator can retry.
func (t *Tracker) Cancel(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || (t.session.State != StateRecording && t.session.State != StateStopped) {
		return ErrNotRecording
	}

	if err := t.leases.Release(ctx, t.session.VehicleID, t.session.Holder); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"session": t.session.ID,
		"vehicle": t.session.VehicleID,
	}).Info("trip cancelled")

	t.session.Points = nil
	t.session.DistanceKm = 0
	t.session.State = StateCancelled
	return nil
}

// Stats returns a live snapshot for display, or false when no session
// exists.
func (t *Tracker) Stats() (Stats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return Stats{State: StateIdle}, false
	}

	elapsed := time.Since(t.session.StartedAt)
	if t.session.State != StateRecording && !t.session.StoppedAt.IsZero() {
		elapsed = t.session.StoppedAt.Sub(t.session.StartedAt)
	}

	return Stats{
		State:          t.session.State,
		VehicleID:      t.session.VehicleID,
		DistanceKm:     t.session.DistanceKm,
		PointCount:     len(t.session.Points),
		ElapsedSeconds: elapsed.Seconds(),
	}, true
}

// VehicleID returns the session's vehicle, or "" when idle.
func (t *Tracker) VehicleID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil || t.session.State != StateRecording {
		return ""
	}
	return t.session.VehicleID
}

// RenderPath returns the cosmetic smoothed polyline of the current track.
func (t *Tracker) RenderPath() []geo.LatLng {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil
	}
	coords := make([]geo.LatLng, len(t.session.Points))
	for i, p := range t.session.Points {
		coords[i] = geo.LatLng{Lat: p.Latitude, Lng: p.Longitude}
	}
	return geo.SmoothPath(coords)
}

// snapshot copies the session so callers cannot mutate tracker state.
func (t *Tracker) snapshot() *Session {
	s := *t.session
	s.Points = append([]models.FilteredPoint(nil), t.session.Points...)
	return &s
}
