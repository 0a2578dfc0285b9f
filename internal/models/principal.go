package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleClient Role = "client"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// Principal is the authenticated caller, resolved once at the transport
// boundary. Exactly one of ClientPrincipal, DriverPrincipal or
// AdminPrincipal implements it for any request.
type Principal interface {
	PrincipalID() primitive.ObjectID
	Role() Role
	DisplayName() string
}

type ClientPrincipal struct {
	ID                  primitive.ObjectID
	Name                string
	Phone               string
	BloodGroup          string
	HasMedicalAllergies bool
	EmergencyContact    string
}

func (c ClientPrincipal) PrincipalID() primitive.ObjectID { return c.ID }
func (c ClientPrincipal) Role() Role                      { return RoleClient }
func (c ClientPrincipal) DisplayName() string             { return c.Name }

type DriverPrincipal struct {
	ID      primitive.ObjectID
	Name    string
	Phone   string
	Vehicle Vehicle
}

func (d DriverPrincipal) PrincipalID() primitive.ObjectID { return d.ID }
func (d DriverPrincipal) Role() Role                      { return RoleDriver }
func (d DriverPrincipal) DisplayName() string             { return d.Name }

// AdminPrincipal operates the console of exactly one hospital.
type AdminPrincipal struct {
	ID         primitive.ObjectID
	HospitalID primitive.ObjectID
	Name       string
}

func (a AdminPrincipal) PrincipalID() primitive.ObjectID { return a.ID }
func (a AdminPrincipal) Role() Role                      { return RoleAdmin }
func (a AdminPrincipal) DisplayName() string             { return a.Name }

// Rooms returns the notification rooms a principal's sockets join.
func Rooms(p Principal) []string {
	switch v := p.(type) {
	case ClientPrincipal:
		return []string{ClientRoom(v.ID)}
	case DriverPrincipal:
		return []string{DriverRoom(v.ID), RoomDrivers}
	case AdminPrincipal:
		return []string{HospitalRoom(v.HospitalID), RoomAdmin}
	}
	return nil
}
