// Package handoff moves incident command and vehicle rosters off users
// who log out.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

// EventCommanderTransferred is broadcast to dispatchers after a hand-off
const EventCommanderTransferred = "incidentCommanderTransferred"

// Presence is the part of the connection registry a hand-off needs
type Presence interface {
	IsOnline(userID string) bool
	Unregister(userID string) bool
	BroadcastToRole(role models.Role, event string, payload interface{})
}

// Transferred is the payload of EventCommanderTransferred
type Transferred struct {
	From        string               `json:"from"`
	To          string               `json:"to"`
	IncidentIDs []primitive.ObjectID `json:"incidentIds"`
}

// Service runs logouts. Rebalancing is serialized so two departing
// dispatchers never read the same stale load.
type Service struct {
	UDB      databases.UserDatabase
	IDB      databases.IncidentDatabase
	HDB      databases.HandoffDatabase
	Presence Presence

	mu  sync.Mutex
	now func() time.Time
}

// NewService returns a Service over the given stores and registry
func NewService(udb databases.UserDatabase, idb databases.IncidentDatabase, hdb databases.HandoffDatabase, p Presence) *Service {
	return &Service{
		UDB:      udb,
		IDB:      idb,
		HDB:      hdb,
		Presence: p,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Logout routes a logout by role: dispatchers are rebalanced, everyone
// else is pulled off vehicle rosters.
func (s *Service) Logout(ctx context.Context, username string, role models.Role) error {
	if role == models.RoleDispatch {
		return s.LogoutDispatcher(ctx, username)
	}
	return s.LogoutResponder(ctx, username)
}

// LogoutDispatcher hands every Triage incident commanded by username to
// the least busy online dispatcher, then disconnects username. With no
// other dispatcher online the incidents keep their commander.
func (s *Service) LogoutDispatcher(ctx context.Context, username string) error {
	user, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.onlineDispatchers(ctx, username)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		zap.S().Infow("no other dispatcher online, keeping incidents",
			"username", username)
		s.disconnect(user)
		return nil
	}

	triage, err := s.IDB.Find(ctx, bson.M{"commander": username, "incidentState": models.IncidentTriage})
	if err != nil {
		return fmt.Errorf("failed to list triage incidents of %q: %w", username, err)
	}
	if len(triage) > 0 {
		target, err := s.FindLeastBusyDispatcher(ctx, candidates)
		if err != nil {
			return err
		}

		h := models.Handoff{
			FromUsername: username,
			ToUsername:   target.Username,
			IncidentIDs:  make([]primitive.ObjectID, 0, len(triage)),
			Status:       models.HandoffPending,
			CreatedAt:    s.now(),
		}
		for _, inc := range triage {
			h.IncidentIDs = append(h.IncidentIDs, inc.ID)
		}
		h.ID, err = s.HDB.InsertOne(ctx, h)
		if err != nil {
			return fmt.Errorf("failed to journal handoff from %q: %w", username, err)
		}
		if err := s.transfer(ctx, h); err != nil {
			// the caller sees the error and stays logged in
			s.abandon(ctx, h, err.Error())
			return err
		}
	}

	s.disconnect(user)
	return nil
}

// LogoutResponder removes username from every incident's vehicle roster
// and disconnects it. Incident command is left alone.
func (s *Service) LogoutResponder(ctx context.Context, username string) error {
	user, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}

	n, err := s.IDB.UpdateMany(ctx,
		bson.M{"assignedVehicles.usernames": username},
		bson.M{"$pull": bson.M{"assignedVehicles.$[].usernames": username}},
	)
	if err != nil {
		return fmt.Errorf("failed to release %q from vehicles: %w", username, err)
	}
	zap.S().Infow("responder released from vehicles", "username", username, "incidents", n)

	s.disconnect(user)
	return nil
}

// Disconnect is the plain logout: it drops the user's live connection
func (s *Service) Disconnect(ctx context.Context, username string) error {
	user, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}
	s.disconnect(user)
	return nil
}

// FindLeastBusyDispatcher returns the candidate commanding the fewest
// Triage incidents. Equal loads go to the lowest user id.
func (s *Service) FindLeastBusyDispatcher(ctx context.Context, candidates []models.User) (*models.User, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no dispatcher to pick from: %w", models.ErrNotFound)
	}
	sorted := make([]models.User, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.Hex() < sorted[j].ID.Hex()
	})

	best, bestLoad := -1, int64(0)
	for i, c := range sorted {
		load, err := s.IDB.CountDocuments(ctx, bson.M{"commander": c.Username, "incidentState": models.IncidentTriage})
		if err != nil {
			return nil, fmt.Errorf("failed to count triage load of %q: %w", c.Username, err)
		}
		if best == -1 || load < bestLoad {
			best, bestLoad = i, load
		}
	}
	zap.S().Debugw("least busy dispatcher", "username", sorted[best].Username, "load", bestLoad)
	return &sorted[best], nil
}

// ResumePending finishes hand-offs cut short by a crash. Nothing about an
// entry is trusted but its incident ids: the departing dispatcher must
// still be offline and the target is picked again among the dispatchers
// online now. Entries that no longer apply are abandoned. Each entry is
// handled independently; the errors are joined.
func (s *Service) ResumePending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.HDB.FindPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending handoffs: %w", err)
	}
	var errs []error
	for _, h := range pending {
		if err := s.resume(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) resume(ctx context.Context, h models.Handoff) error {
	from, err := s.resolve(ctx, h.FromUsername)
	if errors.Is(err, models.ErrNotFound) {
		s.abandon(ctx, h, "departing dispatcher no longer exists")
		return nil
	}
	if err != nil {
		return err
	}
	if s.Presence.IsOnline(from.ID.Hex()) {
		s.abandon(ctx, h, "departing dispatcher is online")
		return nil
	}

	candidates, err := s.onlineDispatchers(ctx, h.FromUsername)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		s.abandon(ctx, h, "no dispatcher online")
		return nil
	}
	target, err := s.FindLeastBusyDispatcher(ctx, candidates)
	if err != nil {
		return err
	}

	zap.S().Infow("resuming handoff",
		"handoffId", h.ID.Hex(),
		"from", h.FromUsername,
		"journaledTo", h.ToUsername,
		"to", target.Username,
	)
	h.ToUsername = target.Username
	return s.transfer(ctx, h)
}

// transfer moves the journaled incidents still commanded by the departing
// dispatcher and still in Triage. Running it twice is harmless.
func (s *Service) transfer(ctx context.Context, h models.Handoff) error {
	n, err := s.IDB.UpdateMany(ctx,
		bson.M{
			"_id":           bson.M{"$in": h.IncidentIDs},
			"commander":     h.FromUsername,
			"incidentState": models.IncidentTriage,
		},
		bson.M{"$set": bson.M{"commander": h.ToUsername}},
	)
	if err != nil {
		return fmt.Errorf("failed to transfer incidents from %q to %q: %w", h.FromUsername, h.ToUsername, err)
	}
	if err := s.HDB.MarkComplete(ctx, h.ID, h.ToUsername, s.now()); err != nil {
		return err
	}

	zap.S().Infow("incident command transferred",
		"from", h.FromUsername,
		"to", h.ToUsername,
		"incidents", n,
	)
	s.Presence.BroadcastToRole(models.RoleDispatch, EventCommanderTransferred, Transferred{
		From:        h.FromUsername,
		To:          h.ToUsername,
		IncidentIDs: h.IncidentIDs,
	})
	return nil
}

func (s *Service) abandon(ctx context.Context, h models.Handoff, reason string) {
	zap.S().Warnw("abandoning handoff", "handoffId", h.ID.Hex(), "from", h.FromUsername, "reason", reason)
	if err := s.HDB.MarkAbandoned(ctx, h.ID, reason, s.now()); err != nil {
		zap.S().Errorw("failed to abandon handoff", "handoffId", h.ID.Hex(), "error", err)
	}
}

func (s *Service) resolve(ctx context.Context, username string) (*models.User, error) {
	user, err := s.UDB.FindOne(ctx, bson.M{"username": username})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %q: %w", username, err)
	}
	return user, nil
}

func (s *Service) onlineDispatchers(ctx context.Context, except string) ([]models.User, error) {
	dispatchers, err := s.UDB.Find(ctx, bson.M{"role": models.RoleDispatch, "username": bson.M{"$ne": except}})
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatchers: %w", err)
	}
	online := make([]models.User, 0, len(dispatchers))
	for _, d := range dispatchers {
		if d.Username != except && s.Presence.IsOnline(d.ID.Hex()) {
			online = append(online, d)
		}
	}
	return online, nil
}

func (s *Service) disconnect(user *models.User) {
	if !s.Presence.Unregister(user.ID.Hex()) {
		zap.S().Warnw("logout of a user with no live connection", "username", user.Username)
	}
}
