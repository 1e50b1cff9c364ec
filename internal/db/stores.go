package db

import (
	"context"
	"errors"

	"github.com/fieldfleet/trip-recorder/internal/models"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrTripNotFound    = errors.New("trip not found")
	ErrUserNotFound    = errors.New("user not found")
)

// VehicleUpdate is a partial update of a vehicle document. Nil fields are
// left untouched in the store, so a lease transition never clobbers the
// odometer and a trip save can roll both forward in one write.
type VehicleUpdate struct {
	InUse     *bool
	InUseBy   *string // pointer to "" clears the holder
	Odometer  *int
	FuelLevel *models.FuelLevel
}

// VehicleStore defines the read/write contract the trip recorder needs from
// the shared vehicle records. Reads must reflect this client's own writes.
type VehicleStore interface {
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicleFields(ctx context.Context, id string, update VehicleUpdate) error
}

// TripStore persists finished trips.
type TripStore interface {
	InsertTrip(ctx context.Context, trip models.Trip) (string, error)
	FindTripByID(ctx context.Context, id string) (*models.Trip, error)
	FindTripsByVehicle(ctx context.Context, vehicleID string) ([]models.Trip, error)
}

// UserStore looks up operator accounts for login.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}
