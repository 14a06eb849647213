package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

// Patient exported for testing purposes
type Patient struct {
	PDB databases.PatientDatabase
	SDB databases.PatientStatusDatabase

	now func() time.Time
}

func (p Patient) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now().UTC()
}

// CreateVisitLogHandler records a visit log for a patient. Fields the log
// leaves empty are carried over from the patient's current status.
func (p Patient) CreateVisitLogHandler(w http.ResponseWriter, r *http.Request) {
	var change models.PatientStatus
	if err := decodeBody(r, &change); err != nil {
		writeError(w, "invalid visit log", err)
		return
	}
	change.IsVisitLog = true
	status, err := p.record(r, change)
	if err != nil {
		writeError(w, "failed to create visit log", err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

// VisitLogsHandler lists the visit logs of a patient, oldest first
func (p Patient) VisitLogsHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]
	if _, err := p.PDB.FindOne(r.Context(), bson.M{"patientId": patientID}); err != nil {
		writeError(w, "failed to get patient", err)
		return
	}
	logs, err := p.SDB.VisitLogs(r.Context(), patientID)
	if err != nil {
		writeError(w, "failed to get visit logs", err)
		return
	}
	if len(logs) == 0 {
		logs = []models.PatientStatus{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// StatusHandler returns the current status of a patient
func (p Patient) StatusHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]
	if _, err := p.PDB.FindOne(r.Context(), bson.M{"patientId": patientID}); err != nil {
		writeError(w, "failed to get patient", err)
		return
	}
	status, err := p.SDB.Latest(r.Context(), patientID)
	if err != nil {
		writeError(w, "no status recorded for patient", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// UpdateStatusHandler records a new status for a patient, typically to
// assign a nurse or a hospital
func (p Patient) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var change models.PatientStatus
	if err := decodeBody(r, &change); err != nil {
		writeError(w, "invalid patient status", err)
		return
	}
	change.IsVisitLog = false
	status, err := p.record(r, change)
	if err != nil {
		writeError(w, "failed to update patient status", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// AssignedPatientsHandler splits every patient by whether their current
// status names a hospital
func (p Patient) AssignedPatientsHandler(w http.ResponseWriter, r *http.Request) {
	patients, err := p.PDB.Find(r.Context(), bson.M{})
	if err != nil {
		writeError(w, "failed to get patients", err)
		return
	}
	ids := make([]string, 0, len(patients))
	for _, patient := range patients {
		ids = append(ids, patient.PatientID)
	}
	latest, err := p.SDB.LatestByPatient(r.Context(), ids)
	if err != nil {
		writeError(w, "failed to get patient statuses", err)
		return
	}

	resp := models.AssignedPatients{
		Assigned:   []models.ExpandedPatient{},
		Unassigned: []models.ExpandedPatient{},
	}
	for _, patient := range patients {
		expanded := models.ExpandedPatient{Patient: patient}
		if status, ok := latest[patient.PatientID]; ok {
			expanded.Metadata = &status
		}
		if expanded.Metadata != nil && expanded.Metadata.HospitalID != "" {
			resp.Assigned = append(resp.Assigned, expanded)
		} else {
			resp.Unassigned = append(resp.Unassigned, expanded)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// record appends change to the history of the patient in the route,
// starting from its current status
func (p Patient) record(r *http.Request, change models.PatientStatus) (*models.PatientStatus, error) {
	if err := models.CheckCondition(change.Condition); err != nil {
		return nil, err
	}
	patientID := mux.Vars(r)["patientId"]
	if _, err := p.PDB.FindOne(r.Context(), bson.M{"patientId": patientID}); err != nil {
		return nil, err
	}

	current := models.PatientStatus{PatientID: patientID}
	latest, err := p.SDB.Latest(r.Context(), patientID)
	switch {
	case err == nil:
		current = *latest
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	next := current.Amend(change, p.clock())
	id, err := p.SDB.InsertOne(r.Context(), next)
	if err != nil {
		return nil, err
	}
	next.ID = id

	zap.S().Debugw("patient status recorded",
		"patientId", patientID,
		"visitLog", next.IsVisitLog,
		"hospitalId", next.HospitalID,
	)
	return &next, nil
}
