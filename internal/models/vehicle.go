package models

import "fmt"

type Vehicle struct {
	Type  string `json:"type" bson:"type"`
	Plate string `json:"plate" bson:"plate"`
}

func (v Vehicle) String() string {
	kind := v.Type
	if kind == "" {
		kind = "Ambulance"
	}
	if v.Plate == "" {
		return kind
	}
	return fmt.Sprintf("%s (%s)", kind, v.Plate)
}

type DevicePlatform string

const (
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformIOS     DevicePlatform = "ios"
)

// Device is the push target registered by a driver or hospital console.
type Device struct {
	Token    string         `json:"token" bson:"token"`
	Platform DevicePlatform `json:"platform" bson:"platform"`
}
