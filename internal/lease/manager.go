// Package lease implements best-effort exclusive vehicle leasing over the
// shared vehicle records. A lease is two fields on the vehicle document
// (in_use, in_use_by); acquisition is a read followed by a conditional
// write, not an atomic compare-and-swap, so two clients racing through
// Acquire can both succeed. That window is accepted: the protocol reduces
// double-booking, it does not eliminate it. There is also no lease TTL; a
// client that dies while recording leaves the vehicle held until
// ForceRelease is run by an administrator.
package lease

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/fieldfleet/trip-recorder/internal/db"
	"github.com/fieldfleet/trip-recorder/internal/models"
)

// ErrStoreUnavailable wraps read/write failures against the vehicle store.
// The lease state is unknown after one of these; the operator should retry
// vehicle selection rather than assume success.
var ErrStoreUnavailable = errors.New("vehicle store unavailable")

// Status is the outcome of an acquisition attempt.
type Status string

const (
	// StatusAcquired means the caller now holds the lease.
	StatusAcquired Status = "acquired"
	// StatusConflict means another operator holds the lease; the caller
	// must not record on this vehicle.
	StatusConflict Status = "conflict"
)

// Acquisition is the result of Acquire. On StatusAcquired, Vehicle carries
// the record as read during acquisition so callers can prefill the trip
// form (odometer, fuel level) without a second read.
type Acquisition struct {
	Status  Status
	Vehicle *models.Vehicle
}

// Manager acquires and releases vehicle leases.
type Manager struct {
	vehicles db.VehicleStore
}

// NewManager creates a lease manager over the given vehicle store.
func NewManager(vehicles db.VehicleStore) *Manager {
	return &Manager{vehicles: vehicles}
}

// Acquire attempts to take the lease on a vehicle for the given holder.
// Re-entry by the current holder is idempotent and reports StatusAcquired.
// A vehicle that does not exist is db.ErrVehicleNotFound, not a store
// failure; there is nothing to retry.
func (m *Manager) Acquire(ctx context.Context, vehicleID, holder string) (*Acquisition, error) {
	vehicle, err := m.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrVehicleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading vehicle %s: %v", ErrStoreUnavailable, vehicleID, err)
	}

	if vehicle.InUse && vehicle.InUseBy != holder {
		log.WithFields(log.Fields{
			"vehicle": vehicleID,
			"holder":  vehicle.InUseBy,
			"caller":  holder,
		}).Info("lease conflict")
		return &Acquisition{Status: StatusConflict, Vehicle: vehicle}, nil
	}

	held := true
	if err := m.vehicles.UpdateVehicleFields(ctx, vehicleID, db.VehicleUpdate{
		InUse:   &held,
		InUseBy: &holder,
	}); err != nil {
		return nil, fmt.Errorf("%w: writing lease on vehicle %s: %v", ErrStoreUnavailable, vehicleID, err)
	}

	log.WithFields(log.Fields{"vehicle": vehicleID, "holder": holder}).Debug("lease acquired")
	vehicle.InUse = true
	vehicle.InUseBy = holder
	return &Acquisition{Status: StatusAcquired, Vehicle: vehicle}, nil
}

// Release clears the lease if and only if the given holder owns it. A lease
// held by someone else is left alone, and a missing vehicle record counts as
// already released.
func (m *Manager) Release(ctx context.Context, vehicleID, holder string) error {
	vehicle, err := m.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrVehicleNotFound) {
			return nil
		}
		return fmt.Errorf("%w: reading vehicle %s: %v", ErrStoreUnavailable, vehicleID, err)
	}

	if !vehicle.InUse || vehicle.InUseBy != holder {
		return nil
	}

	if err := m.clear(ctx, vehicleID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"vehicle": vehicleID, "holder": holder}).Debug("lease released")
	return nil
}

// SwitchVehicle releases the old vehicle best-effort and acquires the new
// one. Release failures are logged, not propagated; the acquisition result
// is what matters to the caller.
func (m *Manager) SwitchVehicle(ctx context.Context, oldID, newID, holder string) (*Acquisition, error) {
	if oldID != "" && oldID != newID {
		if err := m.Release(ctx, oldID, holder); err != nil {
			log.WithError(err).WithField("vehicle", oldID).Warn("release during vehicle switch failed")
		}
	}
	return m.Acquire(ctx, newID, holder)
}

// ForceRelease clears the lease regardless of holder. Administrative
// recovery for leases left dangling by a crashed client.
func (m *Manager) ForceRelease(ctx context.Context, vehicleID string) error {
	if err := m.clear(ctx, vehicleID); err != nil {
		return err
	}
	log.WithField("vehicle", vehicleID).Warn("lease force-released")
	return nil
}

func (m *Manager) clear(ctx context.Context, vehicleID string) error {
	held := false
	nobody := ""
	if err := m.vehicles.UpdateVehicleFields(ctx, vehicleID, db.VehicleUpdate{
		InUse:   &held,
		InUseBy: &nobody,
	}); err != nil {
		return fmt.Errorf("%w: clearing lease on vehicle %s: %v", ErrStoreUnavailable, vehicleID, err)
	}
	return nil
}
