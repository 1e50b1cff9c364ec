package main

import (
	"net/http"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/fieldfleet/trip-recorder/internal/auth"
	"github.com/fieldfleet/trip-recorder/internal/config"
	"github.com/fieldfleet/trip-recorder/internal/db"
	"github.com/fieldfleet/trip-recorder/internal/handlers"
	"github.com/fieldfleet/trip-recorder/internal/ingest"
	"github.com/fieldfleet/trip-recorder/internal/lease"
	"github.com/fieldfleet/trip-recorder/internal/middleware"
	"github.com/fieldfleet/trip-recorder/internal/track"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment")
	}

	cfg := config.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Info("Connected to MongoDB")

	database := client.Database(cfg.Database)
	vehicles := &db.MongoVehicleStore{Collection: database.Collection("vehicles")}
	trips := &db.MongoTripStore{Collection: database.Collection("trips")}
	users := &db.MongoUserStore{Collection: database.Collection("users")}

	leases := lease.NewManager(vehicles)
	registry := track.NewRegistry(cfg.Track, leases, trips, vehicles)

	authService, err := auth.NewService()
	if err != nil {
		log.Fatalf("Failed to create auth service: %v", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	authHandler := handlers.NewAuthHandler(authService, users)
	vehicleHandler := handlers.NewVehicleHandler(vehicles, leases)
	sessionHandler := handlers.NewSessionHandler(registry)
	tripHandler := handlers.NewTripHandler(trips)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/vehicles", vehicleHandler.List)
	mux.HandleFunc("/api/vehicles/select", vehicleHandler.Select)
	mux.HandleFunc("/api/vehicles/release", vehicleHandler.Release)
	mux.HandleFunc("/api/vehicles/force-release", vehicleHandler.ForceRelease)
	mux.HandleFunc("/api/session/start", sessionHandler.Start)
	mux.HandleFunc("/api/session/fix", sessionHandler.Fix)
	mux.HandleFunc("/api/session/stop", sessionHandler.Stop)
	mux.HandleFunc("/api/session/save", sessionHandler.Save)
	mux.HandleFunc("/api/session/cancel", sessionHandler.Cancel)
	mux.HandleFunc("/api/session/stats", sessionHandler.Stats)
	mux.HandleFunc("/api/session/path", sessionHandler.Path)
	mux.HandleFunc("/api/trips", tripHandler.Get)

	// Devices may also stream fixes over MQTT instead of the HTTP endpoint.
	ingestor, err := ingest.New(cfg.MQTTBroker, "trip-recorder-ingest", registry)
	if err != nil {
		log.WithError(err).Warn("MQTT broker unreachable, fix ingest over HTTP only")
	} else {
		if err := ingestor.Start(); err != nil {
			log.WithError(err).Warn("MQTT subscribe failed, fix ingest over HTTP only")
		}
		defer ingestor.Stop()
	}

	log.WithField("port", cfg.Port).Info("trip recorder listening")
	log.Fatal(http.ListenAndServe(":"+cfg.Port, authMiddleware.Authenticate(mux)))
}
