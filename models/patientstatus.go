package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PatientConditions are the conditions a patient status may carry. The
// empty string means none was recorded.
var PatientConditions = []string{
	"Allergy",
	"Asthma",
	"Bleeding",
	"Broken bone",
	"Burn",
	"Choking",
	"Concussion",
	"Covid-19",
	"Heart Attack",
	"Heat Stroke",
	"Hypothermia",
	"Poisoning",
	"Seizure",
	"Shock",
	"Strain",
	"Sprain",
	"Stroke",
	"Others",
	"",
}

// PatientStatus is one entry of a patient's history in the
// patientstatuses collection. The newest entry is the patient's current
// status. Entries with IsVisitLog set are the visit logs nurses and
// responders write; the others record assignment changes.
type PatientStatus struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PatientID      string             `json:"patientId" bson:"patientId"`
	IncidentID     string             `json:"incidentId,omitempty" bson:"incidentId,omitempty"`
	IsVisitLog     bool               `json:"isVisitLog" bson:"isVisitLog"`
	Location       string             `json:"location" bson:"location" validate:"omitempty,oneof=er road"`
	Priority       string             `json:"priority,omitempty" bson:"priority,omitempty" validate:"omitempty,oneof=e 1 2 3 4"`
	PriorityLabel  string             `json:"priorityLabel,omitempty" bson:"priorityLabel,omitempty" validate:"omitempty,oneof=could_wait dismissed dead"`
	Age            *int               `json:"age,omitempty" bson:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Conscious      string             `json:"conscious,omitempty" bson:"conscious,omitempty" validate:"omitempty,oneof=yes no"`
	Breathing      string             `json:"breathing,omitempty" bson:"breathing,omitempty" validate:"omitempty,oneof=yes no"`
	ChiefComplaint string             `json:"chiefComplaint,omitempty" bson:"chiefComplaint,omitempty"`
	Condition      string             `json:"condition,omitempty" bson:"condition,omitempty"`
	Drugs          []string           `json:"drugs,omitempty" bson:"drugs,omitempty"`
	Allergies      []string           `json:"allergies,omitempty" bson:"allergies,omitempty"`
	NurseID        string             `json:"nurseId,omitempty" bson:"nurseId,omitempty"`
	ResponderID    string             `json:"responderId,omitempty" bson:"responderId,omitempty"`
	HospitalID     string             `json:"hospitalId,omitempty" bson:"hospitalId,omitempty"`
	Timestamp      time.Time          `json:"timestamp" bson:"timestamp"`
}

// CheckCondition returns ErrValidation unless condition is one of
// PatientConditions
func CheckCondition(condition string) error {
	for _, c := range PatientConditions {
		if c == condition {
			return nil
		}
	}
	return fmt.Errorf("unknown condition %q: %w", condition, ErrValidation)
}

// Amend returns the status that follows s once the non empty fields of
// change are applied. The result has no id and is stamped at.
func (s PatientStatus) Amend(change PatientStatus, at time.Time) PatientStatus {
	next := s
	next.ID = primitive.NilObjectID
	next.IsVisitLog = change.IsVisitLog
	next.Timestamp = at
	if next.Location == "" {
		next.Location = PatientLocationRoad
	}

	for _, f := range []struct {
		dst *string
		src string
	}{
		{&next.IncidentID, change.IncidentID},
		{&next.Location, change.Location},
		{&next.Priority, change.Priority},
		{&next.PriorityLabel, change.PriorityLabel},
		{&next.Conscious, change.Conscious},
		{&next.Breathing, change.Breathing},
		{&next.ChiefComplaint, change.ChiefComplaint},
		{&next.Condition, change.Condition},
		{&next.NurseID, change.NurseID},
		{&next.ResponderID, change.ResponderID},
		{&next.HospitalID, change.HospitalID},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	if change.Age != nil {
		next.Age = change.Age
	}
	if change.Drugs != nil {
		next.Drugs = change.Drugs
	}
	if change.Allergies != nil {
		next.Allergies = change.Allergies
	}
	return next
}

// PatientLocationRoad is where a patient is before reaching a hospital
const PatientLocationRoad = "road"

// ExpandedPatient is a patient joined with its current status, which is
// nil when none was ever recorded
type ExpandedPatient struct {
	Patient
	Metadata *PatientStatus `json:"metadata"`
}

// AssignedPatients splits patients by whether their current status names a
// hospital
type AssignedPatients struct {
	Assigned   []ExpandedPatient `json:"assigned"`
	Unassigned []ExpandedPatient `json:"unassigned"`
}
