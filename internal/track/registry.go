package track

import (
	"sync"

	"github.com/fieldfleet/trip-recorder/internal/db"
	"github.com/fieldfleet/trip-recorder/internal/lease"
)

// Registry hands out one Tracker per operator. The lease protocol keeps two
// operators off the same vehicle; the registry just keeps each operator's
// session isolated on the server side.
type Registry struct {
	cfg      Config
	leases   *lease.Manager
	trips    db.TripStore
	vehicles db.VehicleStore

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, leases *lease.Manager, trips db.TripStore, vehicles db.VehicleStore) *Registry {
	return &Registry{
		cfg:      cfg,
		leases:   leases,
		trips:    trips,
		vehicles: vehicles,
		trackers: make(map[string]*Tracker),
	}
}

// ForHolder returns the tracker owned by the given operator, creating it on
// first use.
func (r *Registry) ForHolder(holder string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trackers[holder]
	if !ok {
		t = NewTracker(r.cfg, r.leases, r.trips, r.vehicles)
		r.trackers[holder] = t
	}
	return t
}

// FindByVehicle returns the tracker currently recording the given vehicle,
// or nil. Used by the fix ingest to route device-published fixes.
func (r *Registry) FindByVehicle(vehicleID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.trackers {
		if t.VehicleID() == vehicleID {
			return t
		}
	}
	return nil
}
