package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/connections"
	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

// EventBedRequested is broadcast to nurses when a bed is requested
const EventBedRequested = "incoming-nurse-alert"

// ERBed exported for testing purposes
type ERBed struct {
	DB       databases.ERBedDatabase
	HDB      databases.HospitalDatabase
	PDB      databases.PatientDatabase
	Registry *connections.Registry
	now      func() time.Time
}

type bedRequest struct {
	HospitalID  string `json:"hospitalId" validate:"required"`
	PatientID   string `json:"patientId" validate:"required"`
	RequestedBy string `json:"requestedBy"`
}

type bedStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type bedCategoryRequest struct {
	TargetStatus string `json:"targetStatus" validate:"required"`
}

type availableBedsResponse struct {
	AvailableBeds int64 `json:"availableBeds"`
}

func (e ERBed) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now().UTC()
}

// CreateBedHandler adds a ready bed to a hospital
func (e ERBed) CreateBedHandler(w http.ResponseWriter, r *http.Request) {
	hospitalID := mux.Vars(r)["hospitalId"]
	if _, err := e.HDB.FindOne(r.Context(), bson.M{"hospitalId": hospitalID}); err != nil {
		writeError(w, "failed to get hospital", err)
		return
	}

	now := e.clock()
	bed := models.ERBed{
		BedID:      uuid.New().String(),
		HospitalID: hospitalID,
		Status:     models.ERBedReady,
		ReadyAt:    &now,
	}
	if _, err := e.DB.InsertOne(r.Context(), bed); err != nil {
		writeError(w, "failed to create bed", err)
		return
	}
	err := e.HDB.UpdateOne(r.Context(), bson.M{"hospitalId": hospitalID}, bson.M{"$inc": bson.M{"totalNumberERBeds": 1}})
	if err != nil {
		writeError(w, "failed to count bed", err)
		return
	}

	zap.S().Infow("er bed created", "bedId", bed.BedID, "hospitalId", hospitalID)
	writeJSON(w, http.StatusCreated, bed)
}

// BedsHandler lists the beds of a hospital
func (e ERBed) BedsHandler(w http.ResponseWriter, r *http.Request) {
	beds, err := e.DB.Find(r.Context(), bson.M{"hospitalId": mux.Vars(r)["hospitalId"]})
	if err != nil {
		writeError(w, "failed to get beds", err)
		return
	}
	if len(beds) == 0 {
		beds = []models.ERBed{}
	}
	writeJSON(w, http.StatusOK, beds)
}

// AvailableBedsHandler counts the ready beds of a hospital
func (e ERBed) AvailableBedsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := e.DB.CountDocuments(r.Context(), bson.M{"hospitalId": mux.Vars(r)["hospitalId"], "status": models.ERBedReady})
	if err != nil {
		writeError(w, "failed to count beds", err)
		return
	}
	writeJSON(w, http.StatusOK, availableBedsResponse{AvailableBeds: n})
}

// RequestBedHandler reserves the first ready bed of a hospital for a
// patient. A patient holds at most one bed that is not ready.
func (e ERBed) RequestBedHandler(w http.ResponseWriter, r *http.Request) {
	var req bedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid bed request", err)
		return
	}
	if _, err := e.PDB.FindOne(r.Context(), bson.M{"patientId": req.PatientID}); err != nil {
		writeError(w, "failed to get patient", err)
		return
	}

	held, err := e.DB.FindOne(r.Context(), bson.M{"patientId": req.PatientID, "status": bson.M{"$ne": models.ERBedReady}})
	if err == nil {
		writeError(w, "patient already has a bed",
			fmt.Errorf("patient %s holds bed %s: %w", req.PatientID, held.BedID, models.ErrAlreadyExists))
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		writeError(w, "failed to check patient beds", err)
		return
	}

	bed, err := e.DB.FindOne(r.Context(), bson.M{"hospitalId": req.HospitalID, "status": models.ERBedReady})
	if err != nil {
		writeError(w, "no ready bed available", err)
		return
	}
	bed.PatientID = req.PatientID
	bed.RequestedBy = req.RequestedBy
	if err := bed.Transition(models.ERBedRequested, e.clock()); err != nil {
		writeError(w, "failed to request bed", err)
		return
	}
	updated, err := e.DB.ReplaceStatus(r.Context(), *bed, models.ERBedReady)
	if err != nil {
		writeError(w, "failed to request bed", err)
		return
	}

	e.Registry.BroadcastToRole(models.RoleNurse, EventBedRequested, updated)
	writeJSON(w, http.StatusOK, updated)
}

// UpdateStatusHandler moves a bed to the requested status
func (e ERBed) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req bedStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid bed status", err)
		return
	}
	bed, err := e.transition(r, req.Status)
	if err != nil {
		writeError(w, "failed to update bed status", err)
		return
	}
	writeJSON(w, http.StatusOK, bed)
}

// UpdateCategoryHandler moves a bed's patient to another category. A
// patient whose bed goes in use is located in the ER.
func (e ERBed) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req bedCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid bed category", err)
		return
	}
	bed, err := e.transition(r, req.TargetStatus)
	if err != nil {
		writeError(w, "failed to move patient", err)
		return
	}
	if bed.Status == models.ERBedInUse && bed.PatientID != "" {
		err := e.PDB.UpdateOne(r.Context(), bson.M{"patientId": bed.PatientID},
			bson.M{"$set": bson.M{"location": models.PatientLocationER, "hospitalId": bed.HospitalID}})
		if err != nil {
			writeError(w, "failed to update patient location", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, bed)
}

func (e ERBed) transition(r *http.Request, status string) (*models.ERBed, error) {
	next, err := models.ParseERBedStatus(status)
	if err != nil {
		return nil, err
	}
	bed, err := e.DB.FindOne(r.Context(), bson.M{"bedId": mux.Vars(r)["bedId"]})
	if err != nil {
		return nil, err
	}
	from := bed.Status
	if err := bed.Transition(next, e.clock()); err != nil {
		return nil, err
	}
	zap.S().Debugw("er bed transition", "bedId", bed.BedID, "from", from, "to", next)
	return e.DB.ReplaceStatus(r.Context(), *bed, from)
}

// PatientsHandler groups the patients of a hospital by the status of the
// bed they hold. Patients of the hospital without a bed are ready to be
// requested for.
func (e ERBed) PatientsHandler(w http.ResponseWriter, r *http.Request) {
	hospitalID := mux.Vars(r)["hospitalId"]
	beds, err := e.DB.Find(r.Context(), bson.M{"hospitalId": hospitalID, "status": bson.M{"$ne": models.ERBedReady}})
	if err != nil {
		writeError(w, "failed to get beds", err)
		return
	}
	held := make(map[string]models.ERBedStatus, len(beds))
	ids := make([]string, 0, len(beds))
	for _, b := range beds {
		if b.PatientID != "" {
			held[b.PatientID] = b.Status
			ids = append(ids, b.PatientID)
		}
	}

	patients, err := e.PDB.Find(r.Context(), bson.M{"$or": bson.A{
		bson.M{"patientId": bson.M{"$in": ids}},
		bson.M{"hospitalId": hospitalID},
	}})
	if err != nil {
		writeError(w, "failed to get patients", err)
		return
	}

	out := models.ERPatientCategories{
		Requesting: []models.Patient{},
		Ready:      []models.Patient{},
		InUse:      []models.Patient{},
		Discharged: []models.Patient{},
	}
	for _, p := range patients {
		switch held[p.PatientID] {
		case models.ERBedRequested:
			out.Requesting = append(out.Requesting, p)
		case models.ERBedInUse:
			out.InUse = append(out.InUse, p)
		case models.ERBedDischarged:
			out.Discharged = append(out.Discharged, p)
		default:
			out.Ready = append(out.Ready, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
