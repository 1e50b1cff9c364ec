// Package ingest receives raw location fixes published by operator devices
// over MQTT and routes them into the active recording session. Fixes arrive
// on fleet/fixes/<vehicleID>; paho delivers messages per topic in order, so
// the pipeline sees them exactly as the device's location provider emitted
// them.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/fieldfleet/trip-recorder/internal/models"
	"github.com/fieldfleet/trip-recorder/internal/track"
)

// TopicPrefix is the topic namespace devices publish fixes under.
const TopicPrefix = "fleet/fixes/"

// FixTopic returns the publish topic for one vehicle's fixes.
func FixTopic(vehicleID string) string {
	return TopicPrefix + vehicleID
}

// Ingestor subscribes to the fix topics and feeds the matching tracker.
type Ingestor struct {
	client   mqtt.Client
	registry *track.Registry
}

// New connects to the broker and returns an ingestor ready to Start.
func New(broker, clientID string, registry *track.Registry) (*Ingestor, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetOrderMatters(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}
	log.WithField("broker", broker).Info("fix ingest connected to MQTT broker")

	return &Ingestor{client: client, registry: registry}, nil
}

// Start subscribes to all vehicle fix topics.
func (i *Ingestor) Start() error {
	token := i.client.Subscribe(TopicPrefix+"+", 1, i.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribing to %s+: %w", TopicPrefix, token.Error())
	}
	return nil
}

// Stop unsubscribes and disconnects.
func (i *Ingestor) Stop() {
	i.client.Unsubscribe(TopicPrefix + "+")
	i.client.Disconnect(250)
}

func (i *Ingestor) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	vehicleID := strings.TrimPrefix(msg.Topic(), TopicPrefix)

	var fix models.LocationFix
	if err := json.Unmarshal(msg.Payload(), &fix); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("discarding malformed fix")
		return
	}

	tracker := i.registry.FindByVehicle(vehicleID)
	if tracker == nil {
		// no session recording this vehicle; fix is not ours to keep
		log.WithField("vehicle", vehicleID).Debug("fix for vehicle with no active session")
		return
	}

	if err := tracker.OnFix(fix); err != nil {
		log.WithError(err).WithField("vehicle", vehicleID).Debug("fix arrived outside a recording session")
	}
}
