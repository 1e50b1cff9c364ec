package models

// LocationFix is one raw reading from a device location provider. Fixes are
// ephemeral: they pass through smoothing and validation and are never stored
// in raw form.
type LocationFix struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lon"`
	Timestamp int64    `json:"time"`               // millisecond epoch
	Accuracy  *float64 `json:"accuracy,omitempty"` // horizontal accuracy, meters
	Speed     *float64 `json:"speed,omitempty"`    // m/s
	Heading   *float64 `json:"heading,omitempty"`  // degrees, 0-360
}

// FilteredPoint is a smoothed location accepted into a trip track. The
// ordered sequence of FilteredPoints is the authoritative record of the
// route; accuracy, speed and heading are carried through from the raw fix.
type FilteredPoint struct {
	Latitude  float64  `bson:"lat" json:"lat"`
	Longitude float64  `bson:"lon" json:"lon"`
	Timestamp int64    `bson:"time" json:"time"`
	Accuracy  *float64 `bson:"accuracy,omitempty" json:"accuracy,omitempty"`
	Speed     *float64 `bson:"speed,omitempty" json:"speed,omitempty"`
	Heading   *float64 `bson:"heading,omitempty" json:"heading,omitempty"`
}
