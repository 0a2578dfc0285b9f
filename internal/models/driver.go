package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "offline"
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusAssigned  DriverStatus = "assigned"
)

// AmbulanceDriver is a dispatchable unit. Its ID is the driver's principal ID.
type AmbulanceDriver struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id"`
	Name               string             `json:"name" bson:"name"`
	Phone              string             `json:"phone" bson:"phone"`
	Location           *GeoPoint          `json:"location,omitempty" bson:"location,omitempty"`
	Status             DriverStatus       `json:"status" bson:"status"`
	Active             bool               `json:"active" bson:"active"`
	Vehicle            Vehicle            `json:"vehicle" bson:"vehicle"`
	Device             *Device            `json:"-" bson:"device,omitempty"`
	LastLocationUpdate *time.Time         `json:"last_location_update,omitempty" bson:"last_location_update,omitempty"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsDispatchable reports whether the driver can receive new SOS alerts.
func (d *AmbulanceDriver) IsDispatchable() bool {
	return d.Active && d.Status == DriverStatusAvailable && d.Location != nil && d.Location.IsSet()
}

func (d *AmbulanceDriver) Clone() *AmbulanceDriver {
	if d == nil {
		return nil
	}
	c := *d
	if d.Location != nil {
		loc := GeoPoint{Type: d.Location.Type, Coordinates: append([]float64(nil), d.Location.Coordinates...)}
		c.Location = &loc
	}
	if d.Device != nil {
		device := *d.Device
		c.Device = &device
	}
	c.LastLocationUpdate = cloneTime(d.LastLocationUpdate)
	return &c
}
