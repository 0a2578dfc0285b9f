package config

import (
	"errors"
	"time"
)

// SearchConfig is one nearest-K geo query.
type SearchConfig struct {
	RadiusKM float64 `yaml:"radius_km"`
	Limit    int     `yaml:"limit"`
}

type DispatchConfig struct {
	// Initial driver search and the TTL advertised in the first sos_alert.
	Initial  SearchConfig  `yaml:"initial"`
	AlertTTL time.Duration `yaml:"alert_ttl"`
	// One broadened search runs when the request is still pending after
	// EscalateAfter.
	EscalateAfter     time.Duration `yaml:"escalate_after"`
	Escalation        SearchConfig  `yaml:"escalation"`
	EscalatedAlertTTL time.Duration `yaml:"escalated_alert_ttl"`

	HospitalSearch SearchConfig  `yaml:"hospital_search"`
	OfferTTL       time.Duration `yaml:"offer_ttl"`

	NearbyPatients    SearchConfig `yaml:"nearby_patients"`
	NearbyHospitals   SearchConfig `yaml:"nearby_hospitals"`
	HospitalDashboard SearchConfig `yaml:"hospital_dashboard"`

	DefaultDriverETAMinutes int `yaml:"default_driver_eta_minutes"`
}

// DefaultDispatchConfig returns the production timings and radii.
func DefaultDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		Initial:                 SearchConfig{RadiusKM: 20, Limit: 3},
		AlertTTL:                30 * time.Second,
		EscalateAfter:           30 * time.Second,
		Escalation:              SearchConfig{RadiusKM: 50, Limit: 10},
		EscalatedAlertTTL:       60 * time.Second,
		HospitalSearch:          SearchConfig{RadiusKM: 50, Limit: 3},
		OfferTTL:                15 * time.Second,
		NearbyPatients:          SearchConfig{RadiusKM: 20, Limit: 10},
		NearbyHospitals:         SearchConfig{RadiusKM: 30, Limit: 10},
		HospitalDashboard:       SearchConfig{RadiusKM: 50, Limit: 20},
		DefaultDriverETAMinutes: 7,
	}
}

func loadDispatchConfig() *DispatchConfig {
	d := DefaultDispatchConfig()
	d.Initial.RadiusKM = getEnvAsFloat64("DISPATCH_INITIAL_RADIUS_KM", d.Initial.RadiusKM)
	d.Initial.Limit = getEnvAsInt("DISPATCH_INITIAL_LIMIT", d.Initial.Limit)
	d.AlertTTL = getEnvAsDuration("DISPATCH_ALERT_TTL", d.AlertTTL)
	d.EscalateAfter = getEnvAsDuration("DISPATCH_ESCALATE_AFTER", d.EscalateAfter)
	d.Escalation.RadiusKM = getEnvAsFloat64("DISPATCH_ESCALATION_RADIUS_KM", d.Escalation.RadiusKM)
	d.Escalation.Limit = getEnvAsInt("DISPATCH_ESCALATION_LIMIT", d.Escalation.Limit)
	d.EscalatedAlertTTL = getEnvAsDuration("DISPATCH_ESCALATED_ALERT_TTL", d.EscalatedAlertTTL)
	d.HospitalSearch.RadiusKM = getEnvAsFloat64("DISPATCH_HOSPITAL_RADIUS_KM", d.HospitalSearch.RadiusKM)
	d.HospitalSearch.Limit = getEnvAsInt("DISPATCH_HOSPITAL_LIMIT", d.HospitalSearch.Limit)
	d.OfferTTL = getEnvAsDuration("DISPATCH_OFFER_TTL", d.OfferTTL)
	return d
}

func (d *DispatchConfig) Validate() error {
	var errs []error
	for name, s := range map[string]SearchConfig{
		"initial":            d.Initial,
		"escalation":         d.Escalation,
		"hospital_search":    d.HospitalSearch,
		"nearby_patients":    d.NearbyPatients,
		"nearby_hospitals":   d.NearbyHospitals,
		"hospital_dashboard": d.HospitalDashboard,
	} {
		if s.RadiusKM <= 0 || s.Limit <= 0 {
			errs = append(errs, errors.New("dispatch."+name+" needs a positive radius_km and limit"))
		}
	}
	if d.AlertTTL <= 0 || d.EscalateAfter <= 0 || d.EscalatedAlertTTL <= 0 || d.OfferTTL <= 0 {
		errs = append(errs, errors.New("dispatch timings must be positive"))
	}
	return errors.Join(errs...)
}
