package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandoffStatus is the progress of a recorded command hand-off
type HandoffStatus string

// Hand-off statuses
const (
	HandoffPending   HandoffStatus = "pending"
	HandoffComplete  HandoffStatus = "complete"
	HandoffAbandoned HandoffStatus = "abandoned"
)

// Handoff records a transfer of triage incidents from one dispatcher to
// another. It is written before any incident moves and marked complete
// once they all have, so a transfer cut short by a crash can be resumed.
// A transfer that failed in front of the caller is abandoned instead.
type Handoff struct {
	ID           primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	FromUsername string               `json:"fromUsername" bson:"fromUsername"`
	ToUsername   string               `json:"toUsername" bson:"toUsername"`
	IncidentIDs  []primitive.ObjectID `json:"incidentIds" bson:"incidentIds"`
	Status       HandoffStatus        `json:"status" bson:"status"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
	CompletedAt  *time.Time           `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Reason       string               `json:"reason,omitempty" bson:"reason,omitempty"`
}

// SchedulerLock is a lease on a scheduled job, so only one instance runs it
type SchedulerLock struct {
	JobName   string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expiresAt"`
}
