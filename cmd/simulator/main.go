// Fix-stream simulator for development: logs an operator in, leases a
// vehicle, starts a recording session and publishes a noisy GPS trace over
// MQTT the way a device in the field would, then stops and saves the trip.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Location is a bare coordinate pair.
type Location struct {
	Lat float64
	Lon float64
}

// Fix mirrors the server's raw location fix payload.
type Fix struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lon"`
	Timestamp int64    `json:"time"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// A service loop around an airport apron (Madrid-Barajas, roughly).
var routeWaypoints = []Location{
	{Lat: 40.4722, Lon: -3.5608},
	{Lat: 40.4745, Lon: -3.5570},
	{Lat: 40.4768, Lon: -3.5601},
	{Lat: 40.4761, Lon: -3.5655},
	{Lat: 40.4733, Lon: -3.5672},
	{Lat: 40.4722, Lon: -3.5608},
}

var authToken string

func authorizedPost(url string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func login(apiURL, email, password string) error {
	resp, err := authorizedPost(apiURL+"/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	authToken = result.Token
	log.WithField("operator", email).Info("Logged in")
	return nil
}

func startSession(apiURL, vehicleID string) error {
	resp, err := authorizedPost(apiURL+"/session/start", map[string]string{
		"vehicle_id": vehicleID,
	})
	if err != nil {
		return fmt.Errorf("start request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("vehicle %s is in use by another operator", vehicleID)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("start failed with status: %d", resp.StatusCode)
	}
	log.WithField("vehicle_id", vehicleID).Info("Recording started")
	return nil
}

func stopAndSave(apiURL string) error {
	resp, err := authorizedPost(apiURL+"/session/stop", map[string]string{})
	if err != nil {
		return fmt.Errorf("stop request failed: %w", err)
	}
	resp.Body.Close()

	save := map[string]interface{}{
		"fuel_level":   "3/4",
		"observations": "simulator run",
	}
	resp, err = authorizedPost(apiURL+"/session/save", save)
	if err != nil {
		return fmt.Errorf("save request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		// straight-line warning; the simulator confirms like an operator would
		save["force"] = true
		resp2, err := authorizedPost(apiURL+"/session/save", save)
		if err != nil {
			return fmt.Errorf("forced save request failed: %w", err)
		}
		defer resp2.Body.Close()
		if resp2.StatusCode != http.StatusCreated {
			return fmt.Errorf("forced save failed with status: %d", resp2.StatusCode)
		}
		log.Info("Trip saved after confirmation")
		return nil
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("save failed with status: %d", resp.StatusCode)
	}
	log.Info("Trip saved")
	return nil
}

func lerp(a, b Location, t float64) Location {
	return Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
}

func haversineKm(a, b Location) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return R * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}

func bearingDeg(a, b Location) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dLambda := (b.Lon - a.Lon) * math.Pi / 180
	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

func jitter(base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

// publishRoute walks the waypoint loop at roughly speedKmh, emitting one
// jittered fix per tick. Every so often it emits a garbage fix (accuracy
// 200 m) to exercise the server-side validator.
func publishRoute(client mqtt.Client, topic string, speedKmh float64, tickSec float64) int {
	published := 0
	now := time.Now()

	for i := 0; i < len(routeWaypoints)-1; i++ {
		from := routeWaypoints[i]
		to := routeWaypoints[i+1]
		segKm := haversineKm(from, to)
		steps := int(math.Max(1, segKm/(speedKmh/3600*tickSec)))

		for s := 0; s <= steps; s++ {
			pos := jitter(lerp(from, to, float64(s)/float64(steps)), 3)
			accuracy := 4 + rand.Float64()*6
			if rand.Float64() < 0.05 {
				accuracy = 200 // degraded fix, should be dropped server-side
			}
			speed := speedKmh / 3.6 * (0.9 + rand.Float64()*0.2)
			heading := bearingDeg(from, to)

			fix := Fix{
				Latitude:  pos.Lat,
				Longitude: pos.Lon,
				Timestamp: now.UnixMilli(),
				Accuracy:  &accuracy,
				Speed:     &speed,
				Heading:   &heading,
			}
			payload, _ := json.Marshal(fix)
			token := client.Publish(topic, 1, false, payload)
			token.Wait()
			published++
			now = now.Add(time.Duration(tickSec * float64(time.Second)))
		}
	}
	return published
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment")
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}
	email := os.Getenv("SIM_EMAIL")
	if email == "" {
		email = "operator@example.com"
	}
	password := os.Getenv("SIM_PASSWORD")
	if password == "" {
		password = "password123"
	}
	vehicleID := os.Getenv("SIM_VEHICLE_ID")
	if vehicleID == "" {
		log.Fatal("SIM_VEHICLE_ID is required")
	}

	if err := login(apiURL, email, password); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	if err := startSession(apiURL, vehicleID); err != nil {
		log.Fatalf("Could not start session: %v", err)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("trip-recorder-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect failed: %v", token.Error())
	}
	defer client.Disconnect(250)

	topic := "fleet/fixes/" + vehicleID
	published := publishRoute(client, topic, 25, 2)
	log.WithFields(log.Fields{"fixes": published, "topic": topic}).Info("Route published")

	// give the ingest a moment to drain before stopping
	time.Sleep(2 * time.Second)

	if err := stopAndSave(apiURL); err != nil {
		log.Fatalf("Could not save trip: %v", err)
	}
}
