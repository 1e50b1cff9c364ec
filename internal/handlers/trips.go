package handlers

import (
	"errors"
	"net/http"

	"github.com/fieldfleet/trip-recorder/internal/db"
)

// TripHandler serves finished trips for the detail and report views.
type TripHandler struct {
	trips db.TripStore
}

// NewTripHandler creates a new trip handler.
func NewTripHandler(trips db.TripStore) *TripHandler {
	return &TripHandler{trips: trips}
}

// Get serves one trip by ?id= or a vehicle's trips by ?vehicle_id=.
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		trip, err := h.trips.FindTripByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, db.ErrTripNotFound) {
				writeError(w, http.StatusNotFound, "Trip not found")
				return
			}
			writeError(w, http.StatusServiceUnavailable, "Trip store unavailable, retry")
			return
		}
		writeJSON(w, http.StatusOK, trip)
		return
	}

	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		writeError(w, http.StatusBadRequest, "id or vehicle_id is required")
		return
	}

	trips, err := h.trips.FindTripsByVehicle(r.Context(), vehicleID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Trip store unavailable, retry")
		return
	}
	writeJSON(w, http.StatusOK, trips)
}
