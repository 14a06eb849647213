package models

import (
	"fmt"
	"time"
)

// ERBedStatus is the status of an emergency room bed
type ERBedStatus string

// ER bed statuses. A bed cycles ready, requested, in_use, discharged and
// back to ready.
const (
	ERBedReady      ERBedStatus = "ready"
	ERBedRequested  ERBedStatus = "requested"
	ERBedInUse      ERBedStatus = "in_use"
	ERBedDischarged ERBedStatus = "discharged"
)

var erBedTransitions = map[ERBedStatus][]ERBedStatus{
	ERBedReady:      {ERBedRequested},
	ERBedRequested:  {ERBedInUse, ERBedReady},
	ERBedInUse:      {ERBedDischarged},
	ERBedDischarged: {ERBedReady},
}

// ERBed holds the structure for the erbeds collection in mongo
type ERBed struct {
	BedID        string      `json:"bedId" bson:"bedId"`
	HospitalID   string      `json:"hospitalId" bson:"hospitalId"`
	PatientID    string      `json:"patientId,omitempty" bson:"patientId,omitempty"`
	Status       ERBedStatus `json:"status" bson:"status"`
	RequestedAt  *time.Time  `json:"requestedAt,omitempty" bson:"requestedAt,omitempty"`
	RequestedBy  string      `json:"requestedBy,omitempty" bson:"requestedBy,omitempty"`
	OccupiedAt   *time.Time  `json:"occupiedAt,omitempty" bson:"occupiedAt,omitempty"`
	DischargedAt *time.Time  `json:"dischargedAt,omitempty" bson:"dischargedAt,omitempty"`
	ReadyAt      *time.Time  `json:"readyAt,omitempty" bson:"readyAt,omitempty"`
}

// ParseERBedStatus returns the status matching s, or ErrInvalidState
func ParseERBedStatus(s string) (ERBedStatus, error) {
	switch st := ERBedStatus(s); st {
	case ERBedReady, ERBedRequested, ERBedInUse, ERBedDischarged:
		return st, nil
	}
	return "", fmt.Errorf("unknown bed status %q: %w", s, ErrInvalidState)
}

// CanTransitionTo reports whether a bed in status s may move to next
func (s ERBedStatus) CanTransitionTo(next ERBedStatus) bool {
	for _, allowed := range erBedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition moves the bed to next, stamping the matching timestamp.
// Moving back to ready frees the bed, so the patient is cleared.
func (b *ERBed) Transition(next ERBedStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("bed %s cannot move from %s to %s: %w", b.BedID, b.Status, next, ErrInvalidState)
	}
	switch next {
	case ERBedRequested:
		b.RequestedAt = &now
	case ERBedInUse:
		b.OccupiedAt = &now
	case ERBedDischarged:
		b.DischargedAt = &now
	case ERBedReady:
		b.ReadyAt = &now
		b.PatientID = ""
		b.RequestedBy = ""
	}
	b.Status = next
	return nil
}

// ERPatientCategories groups the patients of a hospital by the status of their bed
type ERPatientCategories struct {
	Requesting []Patient `json:"requesting"`
	Ready      []Patient `json:"ready"`
	InUse      []Patient `json:"inUse"`
	Discharged []Patient `json:"discharged"`
}
