package models

// Hospital holds the structure for the hospital collection in mongo
type Hospital struct {
	HospitalID          string `json:"hospitalId" bson:"hospitalId" validate:"required"`
	HospitalName        string `json:"hospitalName" bson:"hospitalName" validate:"required"`
	HospitalAddress     string `json:"hospitalAddress" bson:"hospitalAddress"`
	HospitalDescription string `json:"hospitalDescription,omitempty" bson:"hospitalDescription,omitempty"`
	CityID              string `json:"cityId,omitempty" bson:"cityId,omitempty"`
	Capacity            int    `json:"capacity" bson:"capacity" validate:"gte=0"`
	TotalNumberERBeds   int    `json:"totalNumberERBeds" bson:"totalNumberERBeds"`
}

// Patient holds the structure for the patient collection in mongo
type Patient struct {
	PatientID  string `json:"patientId" bson:"patientId" validate:"required"`
	Name       string `json:"name" bson:"name" validate:"required"`
	Priority   string `json:"priority,omitempty" bson:"priority,omitempty"`
	Status     string `json:"status,omitempty" bson:"status,omitempty"`
	Location   string `json:"location,omitempty" bson:"location,omitempty"`
	CityID     string `json:"cityId,omitempty" bson:"cityId,omitempty"`
	HospitalID string `json:"hospitalId,omitempty" bson:"hospitalId,omitempty"`
}

// PatientLocationER is the location a patient gets once their bed is in use
const PatientLocationER = "ER"
