package models

import "fmt"

// GeoPoint is stored as a GeoJSON point so it can back a 2dsphere index.
// Coordinates are ordered [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// LatLng is the wire form of a location.
type LatLng struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

func (p LatLng) GeoPoint() GeoPoint {
	return NewGeoPoint(p.Lat, p.Lng)
}

func (p LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func (p GeoPoint) IsSet() bool {
	return len(p.Coordinates) >= 2
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) >= 2 {
		return p.Coordinates[1]
	}
	return 0
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) >= 1 {
		return p.Coordinates[0]
	}
	return 0
}

func (p GeoPoint) LatLng() LatLng {
	return LatLng{Lat: p.Latitude(), Lng: p.Longitude()}
}
