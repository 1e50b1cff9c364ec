package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fieldfleet/trip-recorder/internal/db"
	"github.com/fieldfleet/trip-recorder/internal/lease"
	"github.com/fieldfleet/trip-recorder/internal/middleware"
)

// VehicleHandler handles vehicle listing and selection. Selecting a vehicle
// acquires its lease so two operators can't record on it at the same time.
type VehicleHandler struct {
	vehicles db.VehicleStore
	leases   *lease.Manager
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(vehicles db.VehicleStore, leases *lease.Manager) *VehicleHandler {
	return &VehicleHandler{
		vehicles: vehicles,
		leases:   leases,
	}
}

// List returns the fleet with current odometer, fuel level and lease state.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Vehicle store unavailable, retry")
		return
	}

	writeJSON(w, http.StatusOK, vehicles)
}

// selectRequest asks for the lease on a vehicle. PreviousVehicleID, when
// set, is released best-effort first (the operator changed their pick).
type selectRequest struct {
	VehicleID         string `json:"vehicle_id"`
	PreviousVehicleID string `json:"previous_vehicle_id,omitempty"`
}

// selectResponse returns the acquired vehicle so the client can prefill the
// trip form with the last odometer reading and fuel level.
type selectResponse struct {
	Status    lease.Status `json:"status"`
	Odometer  int          `json:"odometer"`
	FuelLevel string       `json:"fuel_level"`
}

// Select acquires (or switches) the vehicle lease for the caller.
func (h *VehicleHandler) Select(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req selectRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	acq, err := h.leases.SwitchVehicle(r.Context(), req.PreviousVehicleID, req.VehicleID, claims.Email)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrVehicleNotFound):
			writeError(w, http.StatusNotFound, "Vehicle not found")
		case errors.Is(err, lease.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Vehicle store unavailable, retry vehicle selection")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if acq.Status == lease.StatusConflict {
		writeError(w, http.StatusConflict, "Vehicle is already in use by another operator")
		return
	}

	writeJSON(w, http.StatusOK, selectResponse{
		Status:    acq.Status,
		Odometer:  acq.Vehicle.Odometer,
		FuelLevel: string(acq.Vehicle.FuelLevel),
	})
}

// releaseRequest names the vehicle to release.
type releaseRequest struct {
	VehicleID string `json:"vehicle_id"`
}

// Release gives up the caller's lease on a vehicle.
func (h *VehicleHandler) Release(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	if err := h.leases.Release(r.Context(), req.VehicleID, claims.Email); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Vehicle store unavailable, retry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForceRelease clears a vehicle's lease regardless of holder. Recovery for
// leases left dangling by crashed devices; there is no automatic expiry.
func (h *VehicleHandler) ForceRelease(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	if err := h.leases.ForceRelease(r.Context(), req.VehicleID); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Vehicle store unavailable, retry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
