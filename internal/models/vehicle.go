package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a fleet vehicle. The in_use/in_use_by pair is the
// vehicle's lease: while in_use is true, only the operator named in
// in_use_by may record a trip on it.
type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Registration string             `bson:"registration" json:"registration"` // plate / fleet code
	Model        string             `bson:"model" json:"model"`
	Odometer     int                `bson:"odometer" json:"odometer"` // last recorded reading, km
	FuelLevel    FuelLevel          `bson:"fuel_level" json:"fuel_level"`
	InUse        bool               `bson:"in_use" json:"in_use"`
	InUseBy      string             `bson:"in_use_by,omitempty" json:"in_use_by,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// FuelLevel is an eighth-step fuel gauge reading reported by the operator.
type FuelLevel string

const (
	FuelEighth        FuelLevel = "1/8"
	FuelQuarter       FuelLevel = "1/4"
	FuelThreeEighths  FuelLevel = "3/8"
	FuelHalf          FuelLevel = "1/2"
	FuelFiveEighths   FuelLevel = "5/8"
	FuelThreeQuarters FuelLevel = "3/4"
	FuelSevenEighths  FuelLevel = "7/8"
	FuelFull          FuelLevel = "1"
)

// IsValidFuelLevel checks if a fuel level tag is one of the gauge steps.
func IsValidFuelLevel(level FuelLevel) bool {
	switch level {
	case FuelEighth, FuelQuarter, FuelThreeEighths, FuelHalf,
		FuelFiveEighths, FuelThreeQuarters, FuelSevenEighths, FuelFull:
		return true
	default:
		return false
	}
}
