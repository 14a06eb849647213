package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/dispatch-api/databases/mocks"
	"github.com/linesmerrill/dispatch-api/models"
)

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "%s|%s|%s", id.ID, id.Username, id.Role)
}

func TestCreateTokenAndParse(t *testing.T) {
	a := NewAuth(mocks.NewUserDatabase(t), "secret")
	user := &models.User{ID: primitive.NewObjectID(), Username: "dispatcher1", Role: models.RoleDispatch}

	token, err := a.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)

	claims, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.Equal(t, "dispatcher1", claims.Username)
	assert.Equal(t, models.RoleDispatch, claims.Role)
}

func TestParseToken_Rejects(t *testing.T) {
	a := NewAuth(mocks.NewUserDatabase(t), "secret")
	other := NewAuth(mocks.NewUserDatabase(t), "another-secret")
	user := &models.User{ID: primitive.NewObjectID(), Username: "nurse1", Role: models.RoleNurse}

	foreign, err := other.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)
	_, err = a.ParseToken(foreign)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = a.ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)

	a.now = func() time.Time { return time.Now().Add(-2 * TokenTTL) }
	expired, err := a.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)
	a.now = time.Now
	_, err = a.ParseToken(expired)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMiddleware_BearerToken(t *testing.T) {
	a := NewAuth(mocks.NewUserDatabase(t), "secret")
	user := &models.User{ID: primitive.NewObjectID(), Username: "officer1", Role: models.RolePolice}
	token, err := a.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, user.ID.Hex()+"|officer1|Police", rr.Body.String())
}

func TestMiddleware_TokenFromAnotherInstance(t *testing.T) {
	issuer := NewAuth(mocks.NewUserDatabase(t), "shared")
	a := NewAuth(mocks.NewUserDatabase(t), "shared")
	user := &models.User{ID: primitive.NewObjectID(), Username: "fire1", Role: models.RoleFire}
	token, err := issuer.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, user.ID.Hex()+"|fire1|Fire", rr.Body.String())
}

func TestMiddleware_Unauthorized(t *testing.T) {
	a := NewAuth(mocks.NewUserDatabase(t), "secret")

	req := httptest.NewRequest("GET", "/api/incidents", nil)
	rr := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest("GET", "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddleware_BasicAuth(t *testing.T) {
	db := mocks.NewUserDatabase(t)
	a := NewAuth(db, "secret")
	user := &models.User{ID: primitive.NewObjectID(), Username: "nurse1", Password: hashed(t, "pw"), Role: models.RoleNurse}
	db.On("FindOne", mock.Anything, bson.M{"username": "nurse1"}).Return(user, nil)

	req := httptest.NewRequest("GET", "/api/erbed", nil)
	req.SetBasicAuth("nurse1", "pw")
	rr := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, user.ID.Hex()+"|nurse1|Nurse", rr.Body.String())
}

func TestValidateUser(t *testing.T) {
	db := mocks.NewUserDatabase(t)
	a := NewAuth(db, "secret")
	user := &models.User{ID: primitive.NewObjectID(), Username: "dispatcher1", Password: hashed(t, "right"), Role: models.RoleDispatch}

	db.On("FindOne", mock.Anything, bson.M{"username": "dispatcher1"}).Return(user, nil)
	db.On("FindOne", mock.Anything, bson.M{"username": "ghost"}).Return(nil, fmt.Errorf("user: %w", models.ErrNotFound))
	db.On("FindOne", mock.Anything, bson.M{"username": "flaky"}).Return(nil, errors.New("server selection timeout"))

	info, err := a.ValidateUser(context.Background(), nil, "dispatcher1", "right")
	require.NoError(t, err)
	assert.Equal(t, "dispatcher1", info.UserName())
	assert.Equal(t, user.ID.Hex(), info.ID())
	assert.Equal(t, []string{"Dispatch"}, info.Groups())

	_, err = a.ValidateUser(context.Background(), nil, "dispatcher1", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = a.ValidateUser(context.Background(), nil, "ghost", "right")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = a.ValidateUser(context.Background(), nil, "flaky", "right")
	assert.EqualError(t, err, "failed to get user by username: server selection timeout")
}

func TestRevokeToken(t *testing.T) {
	a := NewAuth(mocks.NewUserDatabase(t), "secret")
	user := &models.User{ID: primitive.NewObjectID(), Username: "dispatcher1", Role: models.RoleDispatch}
	token, err := a.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	a.RevokeToken(req)

	_, err = a.ParseToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	req = httptest.NewRequest("GET", "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// no bearer header is a no-op
	a.RevokeToken(httptest.NewRequest("POST", "/api/logout", nil))
}

func TestRevokeUser(t *testing.T) {
	a := NewAuth(mocks.NewUserDatabase(t), "secret")
	now := time.Now()
	a.now = func() time.Time { return now }
	user := &models.User{ID: primitive.NewObjectID(), Username: "police1", Role: models.RolePolice}
	old, err := a.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)

	a.RevokeUser(user.ID.Hex())

	_, err = a.ParseToken(old)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the token is cached by go-guardian, the middleware still refuses it
	req := httptest.NewRequest("GET", "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer "+old)
	rr := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	now = now.Add(2 * time.Second)
	fresh, err := a.CreateToken(httptest.NewRequest("POST", "/api/login", nil), user)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer "+fresh)
	rr = httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, user.ID.Hex()+"|police1|Police", rr.Body.String())
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "Bearer abc")
	token, ok := BearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	req.Header.Set("Authorization", "Basic abc")
	_, ok = BearerToken(req)
	assert.False(t, ok)
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	h := TimeoutMiddleware(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	ctx, cancel := WithQueryTimeout(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	assert.True(t, ok)
}
