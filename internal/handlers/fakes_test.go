package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/fieldfleet/trip-recorder/internal/db"
	"github.com/fieldfleet/trip-recorder/internal/middleware"
	"github.com/fieldfleet/trip-recorder/internal/models"
)

type fakeVehicleStore struct {
	vehicles map[string]*models.Vehicle
	failAll  bool
}

func newFakeVehicleStore(vehicles ...*models.Vehicle) *fakeVehicleStore {
	s := &fakeVehicleStore{vehicles: make(map[string]*models.Vehicle)}
	for _, v := range vehicles {
		s.vehicles[v.Registration] = v
	}
	return s
}

func (s *fakeVehicleStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	if s.failAll {
		return nil, errors.New("store down")
	}
	var out []models.Vehicle
	for _, v := range s.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (s *fakeVehicleStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if s.failAll {
		return nil, errors.New("store down")
	}
	v, ok := s.vehicles[id]
	if !ok {
		return nil, db.ErrVehicleNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *fakeVehicleStore) UpdateVehicleFields(ctx context.Context, id string, update db.VehicleUpdate) error {
	if s.failAll {
		return errors.New("store down")
	}
	v, ok := s.vehicles[id]
	if !ok {
		return db.ErrVehicleNotFound
	}
	if update.InUse != nil {
		v.InUse = *update.InUse
	}
	if update.InUseBy != nil {
		v.InUseBy = *update.InUseBy
	}
	if update.Odometer != nil {
		v.Odometer = *update.Odometer
	}
	if update.FuelLevel != nil {
		v.FuelLevel = *update.FuelLevel
	}
	return nil
}

type fakeTripStore struct {
	trips []models.Trip
}

func (s *fakeTripStore) InsertTrip(ctx context.Context, trip models.Trip) (string, error) {
	s.trips = append(s.trips, trip)
	return fmt.Sprintf("trip-%d", len(s.trips)), nil
}

func (s *fakeTripStore) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	for i := range s.trips {
		if fmt.Sprintf("trip-%d", i+1) == id {
			return &s.trips[i], nil
		}
	}
	return nil, db.ErrTripNotFound
}

func (s *fakeTripStore) FindTripsByVehicle(ctx context.Context, vehicleID string) ([]models.Trip, error) {
	var out []models.Trip
	for _, trip := range s.trips {
		if trip.VehicleID == vehicleID {
			out = append(out, trip)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users map[string]*models.User
}

func (s *fakeUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdateLastLogin(ctx context.Context, id string) error {
	return nil
}

// asOperator stamps the request with authenticated operator claims, the way
// the auth middleware would.
func asOperator(req *http.Request, email string) *http.Request {
	claims := &models.Claims{UserID: "u1", Email: email}
	return req.WithContext(context.WithValue(req.Context(), middleware.OperatorContextKey, claims))
}

func doJSON(handler http.HandlerFunc, method, target, body, operator string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if operator != "" {
		req = asOperator(req, operator)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}
