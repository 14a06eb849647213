package databases

// go generate: mockery --name HandoffDatabase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/dispatch-api/models"
)

const handoffName = "handoffs"

// HandoffDatabase journals command hand-offs between dispatchers
type HandoffDatabase interface {
	InsertOne(ctx context.Context, handoff models.Handoff) (primitive.ObjectID, error)
	FindPending(ctx context.Context) ([]models.Handoff, error)
	MarkComplete(ctx context.Context, id primitive.ObjectID, toUsername string, at time.Time) error
	MarkAbandoned(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error
}

type handoffDatabase struct {
	db DatabaseHelper
}

// NewHandoffDatabase initializes a new instance of hand-off database with the provided db connection
func NewHandoffDatabase(db DatabaseHelper) HandoffDatabase {
	return &handoffDatabase{
		db: db,
	}
}

func (h *handoffDatabase) InsertOne(ctx context.Context, handoff models.Handoff) (primitive.ObjectID, error) {
	if handoff.ID.IsZero() {
		handoff.ID = primitive.NewObjectID()
	}
	_, err := h.db.Collection(handoffName).InsertOne(ctx, handoff)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return handoff.ID, nil
}

func (h *handoffDatabase) FindPending(ctx context.Context) ([]models.Handoff, error) {
	var handoffs []models.Handoff
	cr, err := h.db.Collection(handoffName).Find(ctx, bson.M{"status": models.HandoffPending})
	if err != nil {
		return nil, err
	}
	if err := cr.Decode(&handoffs); err != nil {
		return nil, err
	}
	return handoffs, nil
}

// MarkComplete closes a pending hand-off, recording who finally took the
// incidents
func (h *handoffDatabase) MarkComplete(ctx context.Context, id primitive.ObjectID, toUsername string, at time.Time) error {
	return h.close(ctx, id, bson.M{"status": models.HandoffComplete, "toUsername": toUsername, "completedAt": at})
}

// MarkAbandoned closes a pending hand-off that must not be resumed
func (h *handoffDatabase) MarkAbandoned(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	return h.close(ctx, id, bson.M{"status": models.HandoffAbandoned, "reason": reason, "completedAt": at})
}

func (h *handoffDatabase) close(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := h.db.Collection(handoffName).UpdateOne(ctx,
		bson.M{"_id": id, "status": models.HandoffPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to close handoff %s: %w", id.Hex(), err)
	}
	if res != nil && res.MatchedCount == 0 {
		return notFound("pending handoff " + id.Hex())
	}
	return nil
}
