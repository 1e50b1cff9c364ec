package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip is the finished record of one recording session. It is immutable once
// written; administrative deletion happens outside this service.
type Trip struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID     string             `json:"vehicle_id" bson:"vehicle_id"`
	Registration  string             `json:"registration" bson:"registration"`
	Operator      string             `json:"operator" bson:"operator"` // holder identity of the recording session
	StartTime     time.Time          `json:"start_time" bson:"start_time"`
	EndTime       time.Time          `json:"end_time" bson:"end_time"`
	StartOdometer int                `json:"start_odometer" bson:"start_odometer"` // km
	EndOdometer   int                `json:"end_odometer" bson:"end_odometer"`     // start + rounded GPS distance
	FuelLevel     FuelLevel          `json:"fuel_level" bson:"fuel_level"`
	Observations  string             `json:"observations" bson:"observations"`
	Points        []FilteredPoint    `json:"points" bson:"points"`
	DistanceKm    float64            `json:"distance_km" bson:"distance_km"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
