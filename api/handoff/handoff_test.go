package handoff_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/dispatch-api/api/handoff"
	"github.com/linesmerrill/dispatch-api/connections"
	"github.com/linesmerrill/dispatch-api/databases/mocks"
	"github.com/linesmerrill/dispatch-api/models"
)

type stubHandle struct{ id string }

func (s stubHandle) ID() string                   { return s.id }
func (stubHandle) Join(string)                    {}
func (stubHandle) Leave(string)                   {}
func (stubHandle) Emit(string, interface{}) error { return nil }

type recordingTransport struct {
	rooms    []string
	events   []string
	payloads []interface{}
}

func (r *recordingTransport) BroadcastToRoom(room, event string, payload interface{}) {
	r.rooms = append(r.rooms, room)
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}

func oid(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

func dispatcher(t *testing.T, hex, username string) models.User {
	return models.User{ID: oid(t, hex), Username: username, Role: models.RoleDispatch}
}

func triageFilter(commander string) bson.M {
	return bson.M{"commander": commander, "incidentState": models.IncidentTriage}
}

type fixture struct {
	udb       *mocks.UserDatabase
	idb       *mocks.IncidentDatabase
	hdb       *mocks.HandoffDatabase
	registry  *connections.Registry
	transport *recordingTransport
	svc       *handoff.Service
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		udb:       mocks.NewUserDatabase(t),
		idb:       mocks.NewIncidentDatabase(t),
		hdb:       mocks.NewHandoffDatabase(t),
		registry:  connections.NewRegistry(nil),
		transport: &recordingTransport{},
	}
	f.registry.AttachTransport(f.transport)
	f.svc = handoff.NewService(f.udb, f.idb, f.hdb, f.registry)
	return f
}

func (f *fixture) connect(users ...models.User) {
	for _, u := range users {
		f.registry.Register(u.ID.Hex(), stubHandle{id: "socket-" + u.Username}, u.Role)
	}
}

func TestLogoutDispatcher_TransfersTriageToLeastBusyPeer(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	c := dispatcher(t, "000000000000000000000003", "dispatcherC")
	f.connect(a, b, c)

	inc1, inc2 := primitive.NewObjectID(), primitive.NewObjectID()
	journalID := primitive.NewObjectID()

	f.udb.On("FindOne", mock.Anything, bson.M{"username": "dispatcherA"}).Return(&a, nil)
	f.udb.On("Find", mock.Anything, bson.M{"role": models.RoleDispatch, "username": bson.M{"$ne": "dispatcherA"}}).
		Return([]models.User{b, c}, nil)
	f.idb.On("Find", mock.Anything, triageFilter("dispatcherA")).Return([]models.Incident{
		{ID: inc1, Commander: "dispatcherA", IncidentState: models.IncidentTriage},
		{ID: inc2, Commander: "dispatcherA", IncidentState: models.IncidentTriage},
	}, nil)
	f.idb.On("CountDocuments", mock.Anything, triageFilter("dispatcherB")).Return(int64(2), nil)
	f.idb.On("CountDocuments", mock.Anything, triageFilter("dispatcherC")).Return(int64(0), nil)
	f.hdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(h models.Handoff) bool {
		return h.FromUsername == "dispatcherA" &&
			h.ToUsername == "dispatcherC" &&
			h.Status == models.HandoffPending &&
			assert.ObjectsAreEqual([]primitive.ObjectID{inc1, inc2}, h.IncidentIDs)
	})).Return(journalID, nil)
	f.idb.On("UpdateMany", mock.Anything,
		bson.M{
			"_id":           bson.M{"$in": []primitive.ObjectID{inc1, inc2}},
			"commander":     "dispatcherA",
			"incidentState": models.IncidentTriage,
		},
		bson.M{"$set": bson.M{"commander": "dispatcherC"}},
	).Return(int64(2), nil)
	f.hdb.On("MarkComplete", mock.Anything, journalID, "dispatcherC", mock.Anything).Return(nil)

	err := f.svc.LogoutDispatcher(context.Background(), "dispatcherA")
	require.NoError(t, err)

	assert.False(t, f.registry.IsOnline(a.ID.Hex()))
	assert.True(t, f.registry.IsOnline(b.ID.Hex()))
	assert.True(t, f.registry.IsOnline(c.ID.Hex()))

	require.Len(t, f.transport.events, 1)
	assert.Equal(t, "role:Dispatch", f.transport.rooms[0])
	assert.Equal(t, handoff.EventCommanderTransferred, f.transport.events[0])
	assert.Equal(t, handoff.Transferred{
		From:        "dispatcherA",
		To:          "dispatcherC",
		IncidentIDs: []primitive.ObjectID{inc1, inc2},
	}, f.transport.payloads[0])
}

func TestLogoutDispatcher_NoOnlinePeerKeepsIncidents(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	f.connect(a)

	f.udb.On("FindOne", mock.Anything, bson.M{"username": "dispatcherA"}).Return(&a, nil)
	f.udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{b}, nil)

	err := f.svc.LogoutDispatcher(context.Background(), "dispatcherA")
	require.NoError(t, err)

	assert.False(t, f.registry.IsOnline(a.ID.Hex()))
	f.idb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	f.idb.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
	f.hdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	assert.Empty(t, f.transport.events)
}

func TestLogoutDispatcher_NoTriageIncidents(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	f.connect(a, b)

	f.udb.On("FindOne", mock.Anything, mock.Anything).Return(&a, nil)
	f.udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{b}, nil)
	f.idb.On("Find", mock.Anything, triageFilter("dispatcherA")).Return([]models.Incident{}, nil)

	err := f.svc.LogoutDispatcher(context.Background(), "dispatcherA")
	require.NoError(t, err)

	assert.False(t, f.registry.IsOnline(a.ID.Hex()))
	f.idb.AssertNotCalled(t, "CountDocuments", mock.Anything, mock.Anything)
	assert.Empty(t, f.transport.events)
}

func TestLogoutDispatcher_UserNotFound(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	f.connect(a)

	f.udb.On("FindOne", mock.Anything, bson.M{"username": "ghost"}).
		Return(nil, fmt.Errorf("user: %w", models.ErrNotFound))

	err := f.svc.LogoutDispatcher(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)

	f.udb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	assert.True(t, f.registry.IsOnline(a.ID.Hex()))
}

func TestLogoutDispatcher_TransferFailurePropagates(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	f.connect(a, b)

	journalID := primitive.NewObjectID()
	f.udb.On("FindOne", mock.Anything, mock.Anything).Return(&a, nil)
	f.udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{b}, nil)
	f.idb.On("Find", mock.Anything, mock.Anything).Return([]models.Incident{{ID: primitive.NewObjectID()}}, nil)
	f.idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	f.hdb.On("InsertOne", mock.Anything, mock.Anything).Return(journalID, nil)
	f.idb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("write conflict"))
	f.hdb.On("MarkAbandoned", mock.Anything, journalID, mock.Anything, mock.Anything).Return(nil)

	err := f.svc.LogoutDispatcher(context.Background(), "dispatcherA")
	assert.EqualError(t, err, `failed to transfer incidents from "dispatcherA" to "dispatcherB": write conflict`)

	f.hdb.AssertNotCalled(t, "MarkComplete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, f.registry.IsOnline(a.ID.Hex()), "a failed logout leaves the user connected")
	assert.Empty(t, f.transport.events)
}

func TestLogoutDispatcher_JournalFailureMovesNothing(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	f.connect(a, b)

	f.udb.On("FindOne", mock.Anything, mock.Anything).Return(&a, nil)
	f.udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{b}, nil)
	f.idb.On("Find", mock.Anything, mock.Anything).Return([]models.Incident{{ID: primitive.NewObjectID()}}, nil)
	f.idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	f.hdb.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NilObjectID, errors.New("timeout"))

	err := f.svc.LogoutDispatcher(context.Background(), "dispatcherA")
	assert.Error(t, err)
	f.idb.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestFindLeastBusyDispatcher_TieGoesToLowestID(t *testing.T) {
	f := newFixture(t)
	low := dispatcher(t, "00000000000000000000000a", "zed")
	high := dispatcher(t, "00000000000000000000000b", "amy")

	f.idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)

	got, err := f.svc.FindLeastBusyDispatcher(context.Background(), []models.User{high, low})
	require.NoError(t, err)
	assert.Equal(t, "zed", got.Username)

	got, err = f.svc.FindLeastBusyDispatcher(context.Background(), []models.User{low, high})
	require.NoError(t, err)
	assert.Equal(t, "zed", got.Username)
}

func TestFindLeastBusyDispatcher_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FindLeastBusyDispatcher(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	f.idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection reset"))
	_, err = f.svc.FindLeastBusyDispatcher(context.Background(), []models.User{dispatcher(t, "000000000000000000000001", "a")})
	assert.EqualError(t, err, `failed to count triage load of "a": connection reset`)
}

func TestLogoutResponder_PullsFromRosters(t *testing.T) {
	f := newFixture(t)
	officer := models.User{ID: primitive.NewObjectID(), Username: "officer1", Role: models.RolePolice}
	f.connect(officer)

	f.udb.On("FindOne", mock.Anything, bson.M{"username": "officer1"}).Return(&officer, nil)
	f.idb.On("UpdateMany", mock.Anything,
		bson.M{"assignedVehicles.usernames": "officer1"},
		bson.M{"$pull": bson.M{"assignedVehicles.$[].usernames": "officer1"}},
	).Return(int64(1), nil)

	err := f.svc.Logout(context.Background(), "officer1", models.RolePolice)
	require.NoError(t, err)
	assert.False(t, f.registry.IsOnline(officer.ID.Hex()))
	assert.Empty(t, f.transport.events)
}

func TestLogoutResponder_Errors(t *testing.T) {
	f := newFixture(t)
	officer := models.User{ID: primitive.NewObjectID(), Username: "officer1", Role: models.RoleFire}

	f.udb.On("FindOne", mock.Anything, bson.M{"username": "ghost"}).Return(nil, fmt.Errorf("user: %w", models.ErrNotFound))
	f.udb.On("FindOne", mock.Anything, bson.M{"username": "officer1"}).Return(&officer, nil)
	f.idb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("boom"))

	err := f.svc.LogoutResponder(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = f.svc.LogoutResponder(context.Background(), "officer1")
	assert.EqualError(t, err, `failed to release "officer1" from vehicles: boom`)
}

func TestDisconnect_UserWithoutConnection(t *testing.T) {
	f := newFixture(t)
	citizen := models.User{ID: primitive.NewObjectID(), Username: "citizen1", Role: models.RoleCitizen}
	f.udb.On("FindOne", mock.Anything, mock.Anything).Return(&citizen, nil)

	assert.NoError(t, f.svc.Disconnect(context.Background(), "citizen1"))
}

func TestResumePending_FailedLogoutIsNotReplayed(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	f.connect(a, b)

	inc := primitive.NewObjectID()
	journalID := primitive.NewObjectID()
	f.udb.On("FindOne", mock.Anything, bson.M{"username": "dispatcherA"}).Return(&a, nil)
	f.udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{b}, nil)
	f.idb.On("Find", mock.Anything, triageFilter("dispatcherA")).Return([]models.Incident{{ID: inc}}, nil)
	f.idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	f.hdb.On("InsertOne", mock.Anything, mock.Anything).Return(journalID, nil)
	f.idb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("write conflict")).Once()
	// the journal write fails too, so the entry is still pending for the job
	f.hdb.On("MarkAbandoned", mock.Anything, journalID, mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()

	require.Error(t, f.svc.LogoutDispatcher(context.Background(), "dispatcherA"))
	require.True(t, f.registry.IsOnline(a.ID.Hex()))
	f.registry.Unregister(b.ID.Hex())

	f.hdb.On("FindPending", mock.Anything).Return([]models.Handoff{{
		ID:           journalID,
		FromUsername: "dispatcherA",
		ToUsername:   "dispatcherB",
		IncidentIDs:  []primitive.ObjectID{inc},
		Status:       models.HandoffPending,
	}}, nil)
	f.hdb.On("MarkAbandoned", mock.Anything, journalID, "departing dispatcher is online", mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.ResumePending(context.Background()))
	f.idb.AssertNumberOfCalls(t, "UpdateMany", 1)
	f.hdb.AssertNotCalled(t, "MarkComplete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.transport.events)
}

func TestResumePending_PicksAnOnlineTarget(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	c := dispatcher(t, "000000000000000000000003", "dispatcherC")
	f.connect(c)

	h := models.Handoff{
		ID:           primitive.NewObjectID(),
		FromUsername: "dispatcherA",
		ToUsername:   "dispatcherB",
		IncidentIDs:  []primitive.ObjectID{primitive.NewObjectID()},
		Status:       models.HandoffPending,
	}
	f.hdb.On("FindPending", mock.Anything).Return([]models.Handoff{h}, nil)
	f.udb.On("FindOne", mock.Anything, bson.M{"username": "dispatcherA"}).Return(&a, nil)
	f.udb.On("Find", mock.Anything, bson.M{"role": models.RoleDispatch, "username": bson.M{"$ne": "dispatcherA"}}).
		Return([]models.User{b, c}, nil)
	f.idb.On("CountDocuments", mock.Anything, triageFilter("dispatcherC")).Return(int64(4), nil)
	f.idb.On("UpdateMany", mock.Anything,
		bson.M{
			"_id":           bson.M{"$in": h.IncidentIDs},
			"commander":     "dispatcherA",
			"incidentState": models.IncidentTriage,
		},
		bson.M{"$set": bson.M{"commander": "dispatcherC"}},
	).Return(int64(1), nil)
	f.hdb.On("MarkComplete", mock.Anything, h.ID, "dispatcherC", mock.Anything).Return(nil)

	require.NoError(t, f.svc.ResumePending(context.Background()))
	require.Len(t, f.transport.payloads, 1)
	assert.Equal(t, "dispatcherC", f.transport.payloads[0].(handoff.Transferred).To)
}

func TestResumePending_NobodyOnlineAbandons(t *testing.T) {
	f := newFixture(t)
	a := dispatcher(t, "000000000000000000000001", "dispatcherA")
	b := dispatcher(t, "000000000000000000000002", "dispatcherB")
	gone := models.Handoff{ID: primitive.NewObjectID(), FromUsername: "ghost", Status: models.HandoffPending}
	h := models.Handoff{ID: primitive.NewObjectID(), FromUsername: "dispatcherA", ToUsername: "dispatcherB", Status: models.HandoffPending}

	f.hdb.On("FindPending", mock.Anything).Return([]models.Handoff{gone, h}, nil)
	f.udb.On("FindOne", mock.Anything, bson.M{"username": "ghost"}).Return(nil, fmt.Errorf("user: %w", models.ErrNotFound))
	f.udb.On("FindOne", mock.Anything, bson.M{"username": "dispatcherA"}).Return(&a, nil)
	f.udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{b}, nil)
	f.hdb.On("MarkAbandoned", mock.Anything, gone.ID, "departing dispatcher no longer exists", mock.Anything).Return(nil)
	f.hdb.On("MarkAbandoned", mock.Anything, h.ID, "no dispatcher online", mock.Anything).Return(nil)

	require.NoError(t, f.svc.ResumePending(context.Background()))
	f.idb.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.transport.events)
}

func TestResumePending_JoinsErrors(t *testing.T) {
	f := newFixture(t)
	c := dispatcher(t, "000000000000000000000003", "dispatcherC")
	d := dispatcher(t, "000000000000000000000004", "dispatcherD")
	f.connect(c)

	broken := models.Handoff{
		ID:           primitive.NewObjectID(),
		FromUsername: "dispatcherD",
		IncidentIDs:  []primitive.ObjectID{primitive.NewObjectID()},
		Status:       models.HandoffPending,
	}
	f.hdb.On("FindPending", mock.Anything).Return([]models.Handoff{broken}, nil)
	f.udb.On("FindOne", mock.Anything, bson.M{"username": "dispatcherD"}).Return(&d, nil)
	f.udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{c}, nil)
	f.idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	f.idb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("not primary"))

	err := f.svc.ResumePending(context.Background())
	assert.EqualError(t, err, `failed to transfer incidents from "dispatcherD" to "dispatcherC": not primary`)
	f.hdb.AssertNotCalled(t, "MarkComplete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.hdb.AssertNotCalled(t, "MarkAbandoned", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResumePending_Nothing(t *testing.T) {
	f := newFixture(t)
	f.hdb.On("FindPending", mock.Anything).Return([]models.Handoff{}, nil)

	assert.NoError(t, f.svc.ResumePending(context.Background()))
}
