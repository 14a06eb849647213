package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IncidentState is the lifecycle state of an incident
type IncidentState string

// Incident lifecycle states, in order
const (
	IncidentWaiting  IncidentState = "Waiting"
	IncidentTriage   IncidentState = "Triage"
	IncidentAssigned IncidentState = "Assigned"
	IncidentClosed   IncidentState = "Closed"
)

var nextIncidentState = map[IncidentState]IncidentState{
	IncidentWaiting:  IncidentTriage,
	IncidentTriage:   IncidentAssigned,
	IncidentAssigned: IncidentClosed,
}

// Incident holds the structure for the incident collection in mongo
type Incident struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	IncidentID        string             `json:"incidentId" bson:"incidentId"`
	Caller            string             `json:"caller" bson:"caller"`
	OpeningDate       time.Time          `json:"openingDate" bson:"openingDate"`
	ClosingDate       *time.Time         `json:"closingDate,omitempty" bson:"closingDate,omitempty"`
	IncidentState     IncidentState      `json:"incidentState" bson:"incidentState"`
	Owner             string             `json:"owner" bson:"owner"`
	Commander         string             `json:"commander" bson:"commander"`
	Address           string             `json:"address" bson:"address"`
	Type              string             `json:"type" bson:"type"`
	Priority          string             `json:"priority" bson:"priority"`
	IncidentCallGroup string             `json:"incidentCallGroup,omitempty" bson:"incidentCallGroup,omitempty"`
	AssignedVehicles  []AssignedVehicle  `json:"assignedVehicles" bson:"assignedVehicles"`
}

// AssignedVehicle is a vehicle dispatched to an incident and the users riding in it
type AssignedVehicle struct {
	Type      string   `json:"type" bson:"type"`
	Name      string   `json:"name" bson:"name"`
	Usernames []string `json:"usernames" bson:"usernames"`
}

// ParseIncidentState returns the IncidentState matching s, or ErrInvalidState
func ParseIncidentState(s string) (IncidentState, error) {
	switch st := IncidentState(s); st {
	case IncidentWaiting, IncidentTriage, IncidentAssigned, IncidentClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown incident state %q: %w", s, ErrInvalidState)
}

// CanTransitionTo reports whether the incident lifecycle allows moving from s to next.
// Staying in the same state is not a transition.
func (s IncidentState) CanTransitionTo(next IncidentState) bool {
	return nextIncidentState[s] == next
}

// DefaultIncidentID is the incident id used when the creator does not pick one
func DefaultIncidentID(caller string) string {
	return "I" + caller
}
