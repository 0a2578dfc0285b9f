package services

import (
	"testing"

	"lifeline/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDriverETAMinutes(t *testing.T) {
	patient := models.NewGeoPoint(37.422, -122.085)

	same := models.NewGeoPoint(37.422, -122.085)
	assert.Equal(t, 3, driverETAMinutes(&same, patient, 7))

	// 0.1 degrees is 11.1 km: 3 + 16.65 minutes.
	north := models.NewGeoPoint(37.522, -122.085)
	assert.Equal(t, 19, driverETAMinutes(&north, patient, 7))

	assert.Equal(t, 7, driverETAMinutes(nil, patient, 7))
	assert.Equal(t, 7, driverETAMinutes(&models.GeoPoint{}, patient, 7))
}

func TestHospitalETAMinutes(t *testing.T) {
	ambulance := models.NewGeoPoint(37.43, -122.09)

	assert.Equal(t, 0, hospitalETAMinutes(ambulance, ambulance))
	assert.Equal(t, 18, hospitalETAMinutes(ambulance, models.NewGeoPoint(37.5, -122.1)))
}

func TestValidLatLng(t *testing.T) {
	assert.True(t, validLatLng(models.LatLng{Lat: 90, Lng: -180}))
	assert.False(t, validLatLng(models.LatLng{Lat: 90.1, Lng: 0}))
	assert.False(t, validLatLng(models.LatLng{Lat: 0, Lng: 180.5}))
}
