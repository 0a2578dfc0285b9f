package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoomDrivers = "drivers"
	RoomAdmin   = "admin"

	driverRoomPrefix   = "driver_"
	hospitalRoomPrefix = "hospital_"
	clientRoomPrefix   = "client_"
)

func DriverRoom(id primitive.ObjectID) string {
	return driverRoomPrefix + id.Hex()
}

func HospitalRoom(id primitive.ObjectID) string {
	return hospitalRoomPrefix + id.Hex()
}

func ClientRoom(id primitive.ObjectID) string {
	return clientRoomPrefix + id.Hex()
}

// RoomTarget splits a private room name into its kind and entity id.
// Shared rooms report false.
func RoomTarget(room string) (Role, primitive.ObjectID, bool) {
	prefixes := []struct {
		prefix string
		kind   Role
	}{
		{driverRoomPrefix, RoleDriver},
		{hospitalRoomPrefix, RoleAdmin},
		{clientRoomPrefix, RoleClient},
	}
	for _, p := range prefixes {
		hex, found := strings.CutPrefix(room, p.prefix)
		if !found {
			continue
		}
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return "", primitive.NilObjectID, false
		}
		return p.kind, id, true
	}
	return "", primitive.NilObjectID, false
}
