package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/connections"
	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

// Incident events broadcast to dispatchers
const (
	EventNewIncident     = "new-incident"
	EventIncidentUpdated = "incident-updated"
)

// Incident exported for testing purposes
type Incident struct {
	DB       databases.IncidentDatabase
	Registry *connections.Registry
}

type createIncidentRequest struct {
	Username string `json:"username" validate:"required"`
}

type newIncidentRequest struct {
	IncidentID        string                   `json:"incidentId"`
	Caller            string                   `json:"caller" validate:"required"`
	IncidentState     string                   `json:"incidentState"`
	Owner             string                   `json:"owner"`
	Commander         string                   `json:"commander"`
	Address           string                   `json:"address"`
	Type              string                   `json:"type"`
	Priority          string                   `json:"priority"`
	IncidentCallGroup string                   `json:"incidentCallGroup"`
	AssignedVehicles  []models.AssignedVehicle `json:"assignedVehicles"`
}

type stateRequest struct {
	State string `json:"incidentState" validate:"required"`
}

type commanderRequest struct {
	Commander string `json:"commander" validate:"required"`
}

type chatGroupRequest struct {
	ChannelID string `json:"channelId" validate:"required"`
}

type vehicleAssignmentRequest struct {
	Type      string   `json:"type" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Usernames []string `json:"usernames"`
}

// CreateIncidentHandler opens the default incident of a caller
func (i Incident) CreateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	var req createIncidentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid incident", err)
		return
	}
	i.create(w, r, models.Incident{
		IncidentID: models.DefaultIncidentID(req.Username),
		Caller:     req.Username,
	})
}

// NewIncidentHandler opens an incident from a full description
func (i Incident) NewIncidentHandler(w http.ResponseWriter, r *http.Request) {
	var req newIncidentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid incident", err)
		return
	}
	inc := models.Incident{
		IncidentID:        req.IncidentID,
		Caller:            req.Caller,
		Owner:             req.Owner,
		Commander:         req.Commander,
		Address:           req.Address,
		Type:              req.Type,
		Priority:          req.Priority,
		IncidentCallGroup: req.IncidentCallGroup,
		AssignedVehicles:  req.AssignedVehicles,
	}
	if req.IncidentState != "" {
		state, err := models.ParseIncidentState(req.IncidentState)
		if err != nil {
			writeError(w, "invalid incident state", err)
			return
		}
		inc.IncidentState = state
	}
	if inc.IncidentID == "" {
		inc.IncidentID = models.DefaultIncidentID(inc.Caller)
	}
	i.create(w, r, inc)
}

func (i Incident) create(w http.ResponseWriter, r *http.Request, inc models.Incident) {
	_, err := i.DB.FindOne(r.Context(), bson.M{"incidentId": inc.IncidentID})
	if err == nil {
		writeError(w, "incident already exists", fmt.Errorf("incident %q: %w", inc.IncidentID, models.ErrAlreadyExists))
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		writeError(w, "failed to check incident", err)
		return
	}

	inc.ID = primitive.NewObjectID()
	inc.OpeningDate = time.Now().UTC()
	if inc.IncidentState == "" {
		inc.IncidentState = models.IncidentWaiting
	}
	if inc.Owner == "" {
		inc.Owner = "System"
	}
	if inc.Commander == "" {
		inc.Commander = "System"
	}
	if inc.AssignedVehicles == nil {
		inc.AssignedVehicles = []models.AssignedVehicle{}
	}
	if _, err := i.DB.InsertOne(r.Context(), inc); err != nil {
		writeError(w, "failed to create incident", err)
		return
	}

	zap.S().Infow("incident created", "incidentId", inc.IncidentID, "caller", inc.Caller)
	i.Registry.BroadcastToRole(models.RoleDispatch, EventNewIncident, inc)
	writeJSON(w, http.StatusCreated, inc)
}

// IncidentsHandler lists incidents, filtered by caller, commander, state
// or channelId when given
func (i Incident) IncidentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bson.M{}
	for param, field := range map[string]string{
		"caller":    "caller",
		"commander": "commander",
		"channelId": "incidentCallGroup",
	} {
		if v := q.Get(param); v != "" {
			filter[field] = v
		}
	}
	if s := q.Get("state"); s != "" {
		state, err := models.ParseIncidentState(s)
		if err != nil {
			writeError(w, "invalid incident state", err)
			return
		}
		filter["incidentState"] = state
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))

	incidents, err := i.DB.Find(r.Context(), filter, databases.PaginatedFindOptions(limit, page))
	if err != nil {
		writeError(w, "failed to get incidents", err)
		return
	}
	// the frontend expects an array even when nothing matches
	if len(incidents) == 0 {
		incidents = []models.Incident{}
	}
	writeJSON(w, http.StatusOK, incidents)
}

// IncidentHandler returns an incident by its incidentId
func (i Incident) IncidentHandler(w http.ResponseWriter, r *http.Request) {
	inc, err := i.DB.FindOne(r.Context(), bson.M{"incidentId": mux.Vars(r)["incidentId"]})
	if err != nil {
		writeError(w, "failed to get incident", err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

// ActiveIncidentHandler returns the open incident called in by a user
func (i Incident) ActiveIncidentHandler(w http.ResponseWriter, r *http.Request) {
	inc, err := i.DB.FindOne(r.Context(), bson.M{
		"caller":        mux.Vars(r)["username"],
		"incidentState": bson.M{"$ne": models.IncidentClosed},
	})
	if err != nil {
		writeError(w, "no active incident found", err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

// UpdateStateHandler moves an incident one step along its lifecycle
func (i Incident) UpdateStateHandler(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid incident state", err)
		return
	}
	next, err := models.ParseIncidentState(req.State)
	if err != nil {
		writeError(w, "invalid incident state", err)
		return
	}

	incidentID := mux.Vars(r)["incidentId"]
	inc, err := i.DB.FindOne(r.Context(), bson.M{"incidentId": incidentID})
	if err != nil {
		writeError(w, "failed to get incident", err)
		return
	}
	if !inc.IncidentState.CanTransitionTo(next) {
		writeError(w, "invalid incident state",
			fmt.Errorf("incident %s cannot move from %s to %s: %w", incidentID, inc.IncidentState, next, models.ErrInvalidState))
		return
	}
	i.setState(w, r, inc, next)
}

// CloseIncidentHandler closes an open incident from whatever state it is in
func (i Incident) CloseIncidentHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incidentId"]
	inc, err := i.DB.FindOne(r.Context(), bson.M{"incidentId": incidentID})
	if err != nil {
		writeError(w, "incident not found", err)
		return
	}
	if inc.IncidentState == models.IncidentClosed {
		writeError(w, "incident already closed", fmt.Errorf("incident %s: %w", incidentID, models.ErrInvalidState))
		return
	}
	i.setState(w, r, inc, models.IncidentClosed)
}

// setState writes next only if nobody moved the incident since it was read
func (i Incident) setState(w http.ResponseWriter, r *http.Request, inc *models.Incident, next models.IncidentState) {
	set := bson.M{"incidentState": next}
	if next == models.IncidentClosed {
		set["closingDate"] = time.Now().UTC()
	}
	updated, err := i.DB.FindOneAndUpdate(r.Context(),
		bson.M{"_id": inc.ID, "incidentState": inc.IncidentState},
		bson.M{"$set": set},
	)
	if err != nil {
		writeError(w, "failed to update incident state", err)
		return
	}
	i.Registry.BroadcastToRole(models.RoleDispatch, EventIncidentUpdated, updated)
	writeJSON(w, http.StatusOK, updated)
}

// UpdateCommanderHandler hands command of an incident to another user
func (i Incident) UpdateCommanderHandler(w http.ResponseWriter, r *http.Request) {
	var req commanderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid commander", err)
		return
	}
	i.update(w, r, bson.M{"$set": bson.M{"commander": req.Commander}})
}

// UpdateChatGroupHandler links an incident to its chat channel
func (i Incident) UpdateChatGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req chatGroupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid chat group", err)
		return
	}
	i.update(w, r, bson.M{"$set": bson.M{"incidentCallGroup": req.ChannelID}})
}

// AddVehicleHandler assigns a vehicle and its crew to an incident. An
// already assigned vehicle gets the crew added.
func (i Incident) AddVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var req vehicleAssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid vehicle", err)
		return
	}
	if req.Usernames == nil {
		req.Usernames = []string{}
	}
	incidentID := mux.Vars(r)["incidentId"]

	updated, err := i.DB.FindOneAndUpdate(r.Context(),
		bson.M{"incidentId": incidentID, "assignedVehicles.name": req.Name},
		bson.M{"$addToSet": bson.M{"assignedVehicles.$.usernames": bson.M{"$each": req.Usernames}}},
	)
	if errors.Is(err, models.ErrNotFound) {
		updated, err = i.DB.FindOneAndUpdate(r.Context(),
			bson.M{"incidentId": incidentID},
			bson.M{"$push": bson.M{"assignedVehicles": models.AssignedVehicle{
				Type:      req.Type,
				Name:      req.Name,
				Usernames: req.Usernames,
			}}},
		)
	}
	if err != nil {
		writeError(w, "failed to assign vehicle", err)
		return
	}
	i.Registry.BroadcastToRole(models.RoleDispatch, EventIncidentUpdated, updated)
	writeJSON(w, http.StatusOK, updated)
}

// RemoveVehicleHandler takes a vehicle off an incident
func (i Incident) RemoveVehicleHandler(w http.ResponseWriter, r *http.Request) {
	i.update(w, r, bson.M{"$pull": bson.M{"assignedVehicles": bson.M{"name": mux.Vars(r)["name"]}}})
}

func (i Incident) update(w http.ResponseWriter, r *http.Request, update bson.M) {
	updated, err := i.DB.FindOneAndUpdate(r.Context(), bson.M{"incidentId": mux.Vars(r)["incidentId"]}, update)
	if err != nil {
		writeError(w, "failed to update incident", err)
		return
	}
	i.Registry.BroadcastToRole(models.RoleDispatch, EventIncidentUpdated, updated)
	writeJSON(w, http.StatusOK, updated)
}
