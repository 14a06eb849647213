package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/dispatch-api/api/handlers"
	"github.com/linesmerrill/dispatch-api/databases/mocks"
	"github.com/linesmerrill/dispatch-api/models"
)

func newPatientHandler(t *testing.T) (handlers.Patient, *mocks.PatientDatabase, *mocks.PatientStatusDatabase) {
	pdb := mocks.NewPatientDatabase(t)
	sdb := mocks.NewPatientStatusDatabase(t)
	return handlers.Patient{PDB: pdb, SDB: sdb}, pdb, sdb
}

func TestPatient_CreateVisitLogHandler(t *testing.T) {
	p, pdb, sdb := newPatientHandler(t)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p1"}).Return(&models.Patient{PatientID: "p1", Name: "Ann"}, nil)
	sdb.On("Latest", mock.Anything, "p1").Return(&models.PatientStatus{
		ID:         primitive.NewObjectID(),
		PatientID:  "p1",
		Location:   "road",
		Priority:   "3",
		HospitalID: "h1",
	}, nil)
	id := primitive.NewObjectID()
	sdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(s models.PatientStatus) bool {
		return s.PatientID == "p1" &&
			s.IsVisitLog &&
			s.Priority == "1" &&
			s.Condition == "Burn" &&
			s.HospitalID == "h1" &&
			s.ID.IsZero() &&
			!s.Timestamp.IsZero()
	})).Return(id, nil)

	rr := serve(p.CreateVisitLogHandler, newRequest("POST", "/",
		`{"priority": "1", "condition": "Burn", "conscious": "yes", "patientId": "someone-else"}`,
		map[string]string{"patientId": "p1"}))
	require.Equal(t, http.StatusCreated, rr.Code)

	var got models.PatientStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "p1", got.PatientID)
	assert.True(t, got.IsVisitLog)
	assert.Equal(t, "yes", got.Conscious)
}

func TestPatient_CreateVisitLogHandlerFirstEntry(t *testing.T) {
	p, pdb, sdb := newPatientHandler(t)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p1"}).Return(&models.Patient{PatientID: "p1"}, nil)
	sdb.On("Latest", mock.Anything, "p1").Return(nil, notFound("status of patient p1"))
	sdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(s models.PatientStatus) bool {
		return s.PatientID == "p1" && s.IsVisitLog && s.Location == models.PatientLocationRoad
	})).Return(primitive.NewObjectID(), nil)

	rr := serve(p.CreateVisitLogHandler, newRequest("POST", "/", `{"chiefComplaint": "chest pain"}`,
		map[string]string{"patientId": "p1"}))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestPatient_CreateVisitLogHandlerRejects(t *testing.T) {
	p, pdb, _ := newPatientHandler(t)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "ghost"}).Return(nil, notFound("patient"))
	vars := map[string]string{"patientId": "ghost"}

	rr := serve(p.CreateVisitLogHandler, newRequest("POST", "/", `{"priority": "1"}`, vars))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(p.CreateVisitLogHandler, newRequest("POST", "/", `{"priority": "9"}`, vars))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(p.CreateVisitLogHandler, newRequest("POST", "/", `{"condition": "Hiccups"}`, vars))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(p.CreateVisitLogHandler, newRequest("POST", "/", `{"location": "moon"}`, vars))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPatient_VisitLogsHandler(t *testing.T) {
	p, pdb, sdb := newPatientHandler(t)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p1"}).Return(&models.Patient{PatientID: "p1"}, nil)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p2"}).Return(&models.Patient{PatientID: "p2"}, nil)
	sdb.On("VisitLogs", mock.Anything, "p1").Return([]models.PatientStatus{
		{PatientID: "p1", IsVisitLog: true, Priority: "2"},
		{PatientID: "p1", IsVisitLog: true, Priority: "1"},
	}, nil)
	sdb.On("VisitLogs", mock.Anything, "p2").Return(nil, nil)

	rr := serve(p.VisitLogsHandler, newRequest("GET", "/", "", map[string]string{"patientId": "p1"}))
	require.Equal(t, http.StatusOK, rr.Code)
	var logs []models.PatientStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)

	rr = serve(p.VisitLogsHandler, newRequest("GET", "/", "", map[string]string{"patientId": "p2"}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestPatient_StatusHandler(t *testing.T) {
	p, pdb, sdb := newPatientHandler(t)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p1"}).Return(&models.Patient{PatientID: "p1"}, nil)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p2"}).Return(&models.Patient{PatientID: "p2"}, nil)
	sdb.On("Latest", mock.Anything, "p1").Return(&models.PatientStatus{PatientID: "p1", NurseID: "nurse1"}, nil)
	sdb.On("Latest", mock.Anything, "p2").Return(nil, notFound("status of patient p2"))

	rr := serve(p.StatusHandler, newRequest("GET", "/", "", map[string]string{"patientId": "p1"}))
	require.Equal(t, http.StatusOK, rr.Code)
	var got models.PatientStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "nurse1", got.NurseID)

	rr = serve(p.StatusHandler, newRequest("GET", "/", "", map[string]string{"patientId": "p2"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "no status recorded for patient", decodeError(t, rr).Message)
}

func TestPatient_UpdateStatusHandlerAssignsHospital(t *testing.T) {
	p, pdb, sdb := newPatientHandler(t)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p1"}).Return(&models.Patient{PatientID: "p1"}, nil)
	sdb.On("Latest", mock.Anything, "p1").Return(&models.PatientStatus{PatientID: "p1", IsVisitLog: true, Priority: "2"}, nil)
	sdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(s models.PatientStatus) bool {
		return !s.IsVisitLog && s.HospitalID == "h1" && s.Priority == "2"
	})).Return(primitive.NewObjectID(), nil)

	rr := serve(p.UpdateStatusHandler, newRequest("PUT", "/", `{"hospitalId": "h1", "isVisitLog": true}`,
		map[string]string{"patientId": "p1"}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPatient_UpdateStatusHandlerStoreFailure(t *testing.T) {
	p, pdb, sdb := newPatientHandler(t)
	pdb.On("FindOne", mock.Anything, bson.M{"patientId": "p1"}).Return(&models.Patient{PatientID: "p1"}, nil)
	sdb.On("Latest", mock.Anything, "p1").Return(nil, errors.New("connection reset"))

	rr := serve(p.UpdateStatusHandler, newRequest("PUT", "/", `{"nurseId": "nurse1"}`,
		map[string]string{"patientId": "p1"}))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestPatient_AssignedPatientsHandler(t *testing.T) {
	p, pdb, sdb := newPatientHandler(t)
	pdb.On("Find", mock.Anything, bson.M{}).Return([]models.Patient{
		{PatientID: "p1", Name: "Ann"},
		{PatientID: "p2", Name: "Bo"},
		{PatientID: "p3", Name: "Cy"},
	}, nil)
	sdb.On("LatestByPatient", mock.Anything, []string{"p1", "p2", "p3"}).Return(map[string]models.PatientStatus{
		"p1": {PatientID: "p1", HospitalID: "h1"},
		"p2": {PatientID: "p2", NurseID: "nurse1"},
	}, nil)

	rr := serve(p.AssignedPatientsHandler, newRequest("GET", "/", "", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got models.AssignedPatients
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Assigned, 1)
	assert.Equal(t, "p1", got.Assigned[0].PatientID)
	assert.Equal(t, "h1", got.Assigned[0].Metadata.HospitalID)
	require.Len(t, got.Unassigned, 2)
	assert.Equal(t, "p2", got.Unassigned[0].PatientID)
	assert.Equal(t, "nurse1", got.Unassigned[0].Metadata.NurseID)
	assert.Nil(t, got.Unassigned[1].Metadata)
}
