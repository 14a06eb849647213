package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the user collection in mongo.
//
// AssignedCity, AssignedCar, AssignedTruck and AssignedVehicleTimestamp are
// only meaningful for some roles; read them through Assignment and write
// them through ApplyAssignment rather than directly.
type User struct {
	ID                       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username                 string             `json:"username" bson:"username"`
	Password                 string             `json:"-" bson:"password"`
	Role                     Role               `json:"role" bson:"role"`
	AssignedCity             *string            `json:"assignedCity" bson:"assignedCity"`
	AssignedCar              *string            `json:"assignedCar" bson:"assignedCar"`
	AssignedTruck            *string            `json:"assignedTruck" bson:"assignedTruck"`
	AssignedVehicleTimestamp *time.Time         `json:"assignedVehicleTimestamp" bson:"assignedVehicleTimestamp"`
	PreviousLatitude         float64            `json:"previousLatitude" bson:"previousLatitude"`
	PreviousLongitude        float64            `json:"previousLongitude" bson:"previousLongitude"`
}

// UserListing is a user as returned by the directory listing
type UserListing struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Online   bool   `json:"online"`
}

// Personnel is a police or fire user as returned by the personnel listing
type Personnel struct {
	ID           string  `json:"_id"`
	Name         string  `json:"name"`
	Role         Role    `json:"role"`
	AssignedCity *string `json:"assignedCity"`
	Online       bool    `json:"online"`
}

// Location is a last known position
type Location struct {
	Latitude  float64 `json:"latitude" bson:"previousLatitude"`
	Longitude float64 `json:"longitude" bson:"previousLongitude"`
}

// Assignment is the role specific part of a user. Exactly one variant
// exists per role, so a police officer can never carry a truck.
type Assignment interface {
	assignment()
}

// PoliceAssignment is the assignment of a Police user
type PoliceAssignment struct {
	City       string     `json:"city,omitempty"`
	Car        string     `json:"car,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
}

// FireAssignment is the assignment of a Fire user
type FireAssignment struct {
	City       string     `json:"city,omitempty"`
	Truck      string     `json:"truck,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
}

// NoAssignment is held by every role that is not dispatched in a vehicle
type NoAssignment struct{}

func (PoliceAssignment) assignment() {}
func (FireAssignment) assignment()   {}
func (NoAssignment) assignment()     {}

// Assignment returns the role specific variant for u
func (u User) Assignment() Assignment {
	switch u.Role {
	case RolePolice:
		return PoliceAssignment{City: deref(u.AssignedCity), Car: deref(u.AssignedCar), AssignedAt: u.AssignedVehicleTimestamp}
	case RoleFire:
		return FireAssignment{City: deref(u.AssignedCity), Truck: deref(u.AssignedTruck), AssignedAt: u.AssignedVehicleTimestamp}
	default:
		return NoAssignment{}
	}
}

// ApplyAssignment writes a back onto the flat document fields. The variant
// must match the user's role.
func (u *User) ApplyAssignment(a Assignment) error {
	switch v := a.(type) {
	case PoliceAssignment:
		if u.Role != RolePolice {
			return fmt.Errorf("police assignment for role %q: %w", u.Role, ErrInvalidState)
		}
		u.AssignedCity, u.AssignedCar, u.AssignedTruck = ref(v.City), ref(v.Car), nil
		u.AssignedVehicleTimestamp = v.AssignedAt
	case FireAssignment:
		if u.Role != RoleFire {
			return fmt.Errorf("fire assignment for role %q: %w", u.Role, ErrInvalidState)
		}
		u.AssignedCity, u.AssignedCar, u.AssignedTruck = ref(v.City), nil, ref(v.Truck)
		u.AssignedVehicleTimestamp = v.AssignedAt
	case NoAssignment:
		if u.Role.IsResponder() {
			return fmt.Errorf("empty assignment for role %q: %w", u.Role, ErrInvalidState)
		}
		u.AssignedCity, u.AssignedCar, u.AssignedTruck, u.AssignedVehicleTimestamp = nil, nil, nil, nil
	default:
		return fmt.Errorf("unknown assignment %T: %w", a, ErrInvalidState)
	}
	return nil
}

// WithVehicle returns the assignment for u with vehicle selected, stamped at
// now. An empty vehicle releases it.
func (u User) WithVehicle(vehicle string, now time.Time) (Assignment, error) {
	var at *time.Time
	if vehicle != "" {
		at = &now
	}
	switch a := u.Assignment().(type) {
	case PoliceAssignment:
		a.Car, a.AssignedAt = vehicle, at
		return a, nil
	case FireAssignment:
		a.Truck, a.AssignedAt = vehicle, at
		return a, nil
	default:
		return nil, fmt.Errorf("user %q with role %q cannot hold a vehicle: %w", u.Username, u.Role, ErrInvalidState)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
