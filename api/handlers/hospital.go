package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

// Hospital exported for testing purposes
type Hospital struct {
	DB  databases.HospitalDatabase
	PDB databases.PatientDatabase
}

// CreateHospitalHandler registers a hospital. Its ER bed count starts at
// zero and grows as beds are created.
func (h Hospital) CreateHospitalHandler(w http.ResponseWriter, r *http.Request) {
	// a body without hospitalId keeps the generated one
	hospital := models.Hospital{HospitalID: uuid.New().String()}
	if err := decodeBody(r, &hospital); err != nil {
		writeError(w, "invalid hospital", err)
		return
	}
	hospital.TotalNumberERBeds = 0

	if _, err := h.DB.InsertOne(r.Context(), hospital); err != nil {
		writeError(w, "failed to create hospital", err)
		return
	}
	writeJSON(w, http.StatusCreated, hospital)
}

// HospitalsHandler lists every hospital
func (h Hospital) HospitalsHandler(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.DB.Find(r.Context(), bson.M{})
	if err != nil {
		writeError(w, "failed to get hospitals", err)
		return
	}
	if len(hospitals) == 0 {
		hospitals = []models.Hospital{}
	}
	writeJSON(w, http.StatusOK, hospitals)
}

// HospitalHandler returns a hospital by its hospitalId
func (h Hospital) HospitalHandler(w http.ResponseWriter, r *http.Request) {
	hospital, err := h.DB.FindOne(r.Context(), bson.M{"hospitalId": mux.Vars(r)["hospitalId"]})
	if err != nil {
		writeError(w, "failed to get hospital", err)
		return
	}
	writeJSON(w, http.StatusOK, hospital)
}

// CreatePatientHandler registers a patient
func (h Hospital) CreatePatientHandler(w http.ResponseWriter, r *http.Request) {
	var patient models.Patient
	if err := decodeBody(r, &patient); err != nil {
		writeError(w, "invalid patient", err)
		return
	}
	_, err := h.PDB.FindOne(r.Context(), bson.M{"patientId": patient.PatientID})
	if err == nil {
		writeError(w, "patient already exists", fmt.Errorf("patient %s: %w", patient.PatientID, models.ErrAlreadyExists))
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		writeError(w, "failed to check patient", err)
		return
	}
	if _, err := h.PDB.InsertOne(r.Context(), patient); err != nil {
		writeError(w, "failed to create patient", err)
		return
	}
	writeJSON(w, http.StatusCreated, patient)
}

// PatientHandler returns a patient by its patientId
func (h Hospital) PatientHandler(w http.ResponseWriter, r *http.Request) {
	patient, err := h.PDB.FindOne(r.Context(), bson.M{"patientId": mux.Vars(r)["patientId"]})
	if err != nil {
		writeError(w, "failed to get patient", err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}
