package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/dispatch-api/api"
	"github.com/linesmerrill/dispatch-api/config"
	"github.com/linesmerrill/dispatch-api/connections"
	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

// LogoutService runs the role specific logout
type LogoutService interface {
	Logout(ctx context.Context, username string, role models.Role) error
}

// User exported for testing purposes
type User struct {
	DB       databases.UserDatabase
	Auth     *api.Auth
	Registry *connections.Registry
	Handoff  LogoutService
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token    string      `json:"token"`
	ID       string      `json:"_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type vehicleRequest struct {
	Vehicle string `json:"vehicle" validate:"required"`
	City    string `json:"city"`
}

type cityRequest struct {
	City string `json:"city"`
}

type logoutRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// RegisterHandler creates a user with a hashed password
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid registration", err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, "invalid role", err)
		return
	}

	_, err = u.DB.FindOne(r.Context(), bson.M{"username": req.Username})
	if err == nil {
		usernameTaken(w, req.Username, nil)
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		writeError(w, "failed to check username", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, "failed to hash password", err)
		return
	}
	user := models.User{
		ID:       primitive.NewObjectID(),
		Username: req.Username,
		Password: string(hash),
		Role:     role,
	}
	if _, err := u.DB.InsertOne(r.Context(), user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			usernameTaken(w, req.Username, err)
			return
		}
		writeError(w, "failed to create user", err)
		return
	}

	zap.S().Infow("user registered", "username", user.Username, "role", user.Role)
	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler checks credentials and returns a bearer token
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid login", err)
		return
	}
	user, err := u.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, "invalid username or password", err)
		return
	}
	token, err := u.Auth.CreateToken(r, user)
	if err != nil {
		writeError(w, "failed to create token", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		ID:       user.ID.Hex(),
		Username: user.Username,
		Role:     user.Role,
	})
}

// ListUsersHandler returns every user with their online flag, online
// users first and each group ordered by username
func (u User) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := u.DB.Find(r.Context(), bson.M{})
	if err != nil {
		writeError(w, "failed to get users", err)
		return
	}

	online := make(map[string]bool)
	for _, id := range u.Registry.ListOnline() {
		online[id] = true
	}
	listing := make([]models.UserListing, 0, len(users))
	for _, user := range users {
		listing = append(listing, models.UserListing{
			ID:       user.ID.Hex(),
			Username: user.Username,
			Role:     user.Role,
			Online:   online[user.ID.Hex()],
		})
	}
	sort.SliceStable(listing, func(i, j int) bool {
		if listing[i].Online != listing[j].Online {
			return listing[i].Online
		}
		return listing[i].Username < listing[j].Username
	})
	writeJSON(w, http.StatusOK, listing)
}

// AvailablePersonnelHandler lists police and fire users without a city,
// ordered by username
func (u User) AvailablePersonnelHandler(w http.ResponseWriter, r *http.Request) {
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	users, err := u.DB.Find(r.Context(), bson.M{
		"role":         bson.M{"$in": []models.Role{models.RolePolice, models.RoleFire}},
		"assignedCity": nil,
	}, opts)
	if err != nil {
		writeError(w, "failed to get personnel", err)
		return
	}

	online := make(map[string]bool)
	for _, id := range u.Registry.ListOnline() {
		online[id] = true
	}
	personnel := make([]models.Personnel, 0, len(users))
	for _, user := range users {
		personnel = append(personnel, models.Personnel{
			ID:           user.ID.Hex(),
			Name:         user.Username,
			Role:         user.Role,
			AssignedCity: user.AssignedCity,
			Online:       online[user.ID.Hex()],
		})
	}
	writeJSON(w, http.StatusOK, personnel)
}

// UpdateCityHandler assigns a police or fire user to a city. An empty city
// returns them to the available pool; their vehicle is kept either way.
func (u User) UpdateCityHandler(w http.ResponseWriter, r *http.Request) {
	var req cityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid city", err)
		return
	}
	username := mux.Vars(r)["username"]
	user, err := u.DB.FindOne(r.Context(), bson.M{"username": username})
	if err != nil {
		writeError(w, "failed to get user", err)
		return
	}

	var assignment models.Assignment
	switch a := user.Assignment().(type) {
	case models.PoliceAssignment:
		a.City = req.City
		assignment = a
	case models.FireAssignment:
		a.City = req.City
		assignment = a
	default:
		writeError(w, "only police and fire personnel have a city",
			fmt.Errorf("%s is %s: %w", user.Username, user.Role, models.ErrValidation))
		return
	}
	if err := user.ApplyAssignment(assignment); err != nil {
		writeError(w, "failed to assign city", err)
		return
	}

	err = u.DB.UpdateOne(r.Context(), bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"assignedCity": user.AssignedCity}})
	if err != nil {
		writeError(w, "failed to save city", err)
		return
	}
	zap.S().Infow("personnel city updated", "username", user.Username, "city", req.City)
	writeJSON(w, http.StatusOK, assignment)
}

// LocationHandler returns the last known location of a user
func (u User) LocationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, "failed to get objectID from Hex", fmt.Errorf("%v: %w", err, models.ErrValidation))
		return
	}
	user, err := u.DB.FindOne(r.Context(), bson.M{"_id": id})
	if err != nil {
		writeError(w, "failed to get user by ID", err)
		return
	}
	writeJSON(w, http.StatusOK, models.Location{Latitude: user.PreviousLatitude, Longitude: user.PreviousLongitude})
}

// UpdateLocationHandler stores the last known location of a user
func (u User) UpdateLocationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, "failed to get objectID from Hex", fmt.Errorf("%v: %w", err, models.ErrValidation))
		return
	}
	var req locationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid location", err)
		return
	}
	loc := models.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	err = u.DB.UpdateOne(r.Context(), bson.M{"_id": id}, bson.M{"$set": bson.M{
		"previousLatitude":  loc.Latitude,
		"previousLongitude": loc.Longitude,
	}})
	if err != nil {
		writeError(w, "failed to update location", err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// SelectVehicleHandler assigns a car or truck to a police or fire user
func (u User) SelectVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid vehicle", err)
		return
	}
	u.assignVehicle(w, r, req.Vehicle, req.City)
}

// ReleaseVehicleHandler frees the vehicle held by a police or fire user
func (u User) ReleaseVehicleHandler(w http.ResponseWriter, r *http.Request) {
	u.assignVehicle(w, r, "", "")
}

func (u User) assignVehicle(w http.ResponseWriter, r *http.Request, vehicle, city string) {
	username := mux.Vars(r)["username"]
	user, err := u.DB.FindOne(r.Context(), bson.M{"username": username})
	if err != nil {
		writeError(w, "failed to get user", err)
		return
	}

	assignment, err := user.WithVehicle(vehicle, time.Now().UTC())
	if err != nil {
		writeError(w, "failed to assign vehicle", err)
		return
	}
	if city != "" {
		switch a := assignment.(type) {
		case models.PoliceAssignment:
			a.City = city
			assignment = a
		case models.FireAssignment:
			a.City = city
			assignment = a
		}
	}
	if err := user.ApplyAssignment(assignment); err != nil {
		writeError(w, "failed to assign vehicle", err)
		return
	}

	err = u.DB.UpdateOne(r.Context(), bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"assignedCity":             user.AssignedCity,
		"assignedCar":              user.AssignedCar,
		"assignedTruck":            user.AssignedTruck,
		"assignedVehicleTimestamp": user.AssignedVehicleTimestamp,
	}})
	if err != nil {
		writeError(w, "failed to save vehicle assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// LogoutHandler hands off the caller's incidents or vehicle seats, drops
// their connection and revokes their token. Only the user themselves or an
// administrator may log a user out, and the stored role decides which
// hand-off runs.
func (u User) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.IdentityFrom(r.Context())
	if !ok {
		writeError(w, "unauthorized", fmt.Errorf("no caller identity: %w", api.ErrUnauthorized))
		return
	}
	var req logoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid logout", err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, "invalid role", err)
		return
	}
	self := caller.Username == req.Username
	if !self && caller.Role != models.RoleAdministrator {
		writeError(w, "cannot logout another user",
			fmt.Errorf("%s may not logout %s: %w", caller.Username, req.Username, api.ErrForbidden))
		return
	}

	user, err := u.DB.FindOne(r.Context(), bson.M{"username": req.Username})
	if err != nil {
		writeError(w, "failed to get user", err)
		return
	}
	if user.Role != role {
		writeError(w, "role does not match user",
			fmt.Errorf("%s is %s, not %s: %w", user.Username, user.Role, role, models.ErrValidation))
		return
	}

	if err := u.Handoff.Logout(r.Context(), user.Username, user.Role); err != nil {
		writeError(w, "failed to logout", err)
		return
	}
	if self {
		u.Auth.RevokeToken(r)
	} else {
		u.Auth.RevokeUser(user.ID.Hex())
	}

	zap.S().Infow("user logged out", "username", user.Username, "role", user.Role, "by", caller.Username)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "logout successful"})
}

func usernameTaken(w http.ResponseWriter, username string, err error) {
	if err == nil {
		err = fmt.Errorf("username %q: %w", username, models.ErrAlreadyExists)
	}
	config.ErrorStatus("username already taken", http.StatusConflict, w, err)
}
