package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fieldfleet/trip-recorder/internal/db"
	"github.com/fieldfleet/trip-recorder/internal/lease"
	"github.com/fieldfleet/trip-recorder/internal/middleware"
	"github.com/fieldfleet/trip-recorder/internal/models"
	"github.com/fieldfleet/trip-recorder/internal/track"
)

// SessionHandler exposes the trip recording lifecycle over HTTP. Each
// authenticated operator gets their own tracker from the registry.
type SessionHandler struct {
	registry *track.Registry
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(registry *track.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

type startRequest struct {
	VehicleID string `json:"vehicle_id"`
}

type startResponse struct {
	SessionID     string `json:"session_id"`
	VehicleID     string `json:"vehicle_id"`
	StartOdometer int    `json:"start_odometer"`
}

// Start begins recording a trip on a vehicle.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
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

	var req startRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	session, err := h.registry.ForHolder(claims.Email).Start(r.Context(), req.VehicleID, claims.Email)
	if err != nil {
		switch {
		case errors.Is(err, track.ErrLeaseUnavailable):
			writeError(w, http.StatusConflict, "Vehicle is already in use by another operator")
		case errors.Is(err, track.ErrAlreadyRecording):
			writeError(w, http.StatusBadRequest, "A trip is already being recorded")
		case errors.Is(err, track.ErrUnsavedTrip):
			writeError(w, http.StatusConflict, "Stopped trip must be saved or cancelled first")
		case errors.Is(err, db.ErrVehicleNotFound):
			writeError(w, http.StatusNotFound, "Vehicle not found")
		case errors.Is(err, lease.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Vehicle store unavailable, retry vehicle selection")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, startResponse{
		SessionID:     session.ID,
		VehicleID:     session.VehicleID,
		StartOdometer: session.StartOdometer,
	})
}

// Fix feeds one raw location fix into the caller's recording session.
// Invalid fixes are dropped silently; the response is 202 either way.
func (h *SessionHandler) Fix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	var fix models.LocationFix
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.registry.ForHolder(claims.Email).OnFix(fix); err != nil {
		writeError(w, http.StatusBadRequest, "No trip is being recorded")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type stopResponse struct {
	DistanceKm float64 `json:"distance_km"`
	PointCount int     `json:"point_count"`
	TooShort   bool    `json:"too_short"`
}

// Stop ends fix collection. A too-short trip still stops, but the response
// flags it so the client can warn the operator.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	session, err := h.registry.ForHolder(claims.Email).Stop()
	if err != nil && !errors.Is(err, track.ErrInsufficientPoints) {
		writeError(w, http.StatusBadRequest, "No trip is being recorded")
		return
	}

	writeJSON(w, http.StatusOK, stopResponse{
		DistanceKm: session.DistanceKm,
		PointCount: len(session.Points),
		TooShort:   errors.Is(err, track.ErrInsufficientPoints),
	})
}

type saveRequest struct {
	FuelLevel    string `json:"fuel_level"`
	Observations string `json:"observations"`
	Force        bool   `json:"force"`
}

type saveResponse struct {
	TripID string `json:"trip_id"`
}

// Save persists the stopped trip. A 422 with needs_confirmation means the
// track failed the road-following check; the client must re-send with
// force=true after the operator confirms.
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tripID, err := h.registry.ForHolder(claims.Email).Save(r.Context(), track.SaveRequest{
		FuelLevel:    models.FuelLevel(req.FuelLevel),
		Observations: req.Observations,
		Force:        req.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, track.ErrImplausibleTrip):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":              err.Error(),
				"needs_confirmation": true,
			})
		case errors.Is(err, track.ErrInsufficientPoints):
			writeError(w, http.StatusUnprocessableEntity, "Trip is too short to save")
		case errors.Is(err, track.ErrNotStopped):
			writeError(w, http.StatusBadRequest, "Trip must be stopped before saving")
		default:
			writeError(w, http.StatusServiceUnavailable, "Could not save trip, retry: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, saveResponse{TripID: tripID})
}

// Cancel discards the trip and releases the vehicle.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	if err := h.registry.ForHolder(claims.Email).Cancel(r.Context()); err != nil {
		if errors.Is(err, lease.ErrStoreUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Vehicle store unavailable, retry")
			return
		}
		writeError(w, http.StatusBadRequest, "No trip to cancel")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats returns the live distance, point count and elapsed time.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	stats, _ := h.registry.ForHolder(claims.Email).Stats()
	writeJSON(w, http.StatusOK, stats)
}

// Path returns the cosmetic smoothed polyline for map rendering.
func (h *SessionHandler) Path(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Operator context not found")
		return
	}

	writeJSON(w, http.StatusOK, h.registry.ForHolder(claims.Email).RenderPath())
}
