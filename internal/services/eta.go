package services

import (
	"math"

	"lifeline/internal/models"
)

// kmPerDegree converts coordinate deltas to a rough distance. Routing is
// out of scope; these heuristics only rank and inform.
const kmPerDegree = 111.0

func manhattanKM(a, b models.GeoPoint) float64 {
	return (math.Abs(a.Longitude()-b.Longitude()) + math.Abs(a.Latitude()-b.Latitude())) * kmPerDegree
}

// driverETAMinutes is 3 minutes plus 1.5 per km, truncated. A driver
// without a known location gets fallback.
func driverETAMinutes(driver *models.GeoPoint, patient models.GeoPoint, fallback int) int {
	if driver == nil || !driver.IsSet() || !patient.IsSet() {
		return fallback
	}
	return int(3 + 1.5*manhattanKM(*driver, patient))
}

func hospitalETAMinutes(ambulance, hospital models.GeoPoint) int {
	return int(math.Round(2 * manhattanKM(ambulance, hospital)))
}

func validLatLng(p models.LatLng) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
