package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Capacity struct {
	ICU     int `json:"icu" bson:"icu"`
	Beds    int `json:"beds" bson:"beds"`
	Doctors int `json:"doctors" bson:"doctors"`
}

type Hospital struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Name      string             `json:"name" bson:"name"`
	Address   string             `json:"address" bson:"address"`
	Location  GeoPoint           `json:"location" bson:"location"`
	Capacity  Capacity           `json:"capacity" bson:"capacity"`
	Verified  bool               `json:"verified" bson:"verified"`
	Device    *Device            `json:"-" bson:"device,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasCapacityFor reports whether the hospital advertises room for the
// given triage level. Capacity is a hint, not a reservation.
func (h *Hospital) HasCapacityFor(level InjuryLevel) bool {
	switch level {
	case InjuryLevelHigh:
		return h.Capacity.ICU > 0
	case InjuryLevelMedium:
		return h.Capacity.Beds > 0
	}
	return true
}

func (h *Hospital) Clone() *Hospital {
	if h == nil {
		return nil
	}
	c := *h
	c.Location.Coordinates = append([]float64(nil), h.Location.Coordinates...)
	if h.Device != nil {
		device := *h.Device
		c.Device = &device
	}
	return &c
}
