package databases

// go generate: mockery --name PatientStatusDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dispatch-api/models"
)

const patientStatusName = "patientstatuses"

// PatientStatusDatabase keeps the append only status history of patients
type PatientStatusDatabase interface {
	InsertOne(ctx context.Context, status models.PatientStatus) (primitive.ObjectID, error)
	Latest(ctx context.Context, patientID string) (*models.PatientStatus, error)
	VisitLogs(ctx context.Context, patientID string) ([]models.PatientStatus, error)
	LatestByPatient(ctx context.Context, patientIDs []string) (map[string]models.PatientStatus, error)
}

type patientStatusDatabase struct {
	db DatabaseHelper
}

// NewPatientStatusDatabase initializes a new instance of patient status database with the provided db connection
func NewPatientStatusDatabase(db DatabaseHelper) PatientStatusDatabase {
	return &patientStatusDatabase{
		db: db,
	}
}

func (p *patientStatusDatabase) InsertOne(ctx context.Context, status models.PatientStatus) (primitive.ObjectID, error) {
	if status.ID.IsZero() {
		status.ID = primitive.NewObjectID()
	}
	_, err := p.db.Collection(patientStatusName).InsertOne(ctx, status)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return status.ID, nil
}

// Latest returns the newest status of patientID
func (p *patientStatusDatabase) Latest(ctx context.Context, patientID string) (*models.PatientStatus, error) {
	status := &models.PatientStatus{}
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	err := p.db.Collection(patientStatusName).FindOne(ctx, bson.M{"patientId": patientID}, opts).Decode(&status)
	if err != nil {
		return nil, wrapNotFound(err, "status of patient "+patientID)
	}
	return status, nil
}

// VisitLogs returns the visit logs of patientID, oldest first
func (p *patientStatusDatabase) VisitLogs(ctx context.Context, patientID string) ([]models.PatientStatus, error) {
	var logs []models.PatientStatus
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cr, err := p.db.Collection(patientStatusName).Find(ctx, bson.M{"patientId": patientID, "isVisitLog": true}, opts)
	if err != nil {
		return nil, err
	}
	if err := cr.Decode(&logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// LatestByPatient returns the newest status of each of patientIDs that has
// one, keyed by patient id
func (p *patientStatusDatabase) LatestByPatient(ctx context.Context, patientIDs []string) (map[string]models.PatientStatus, error) {
	latest := make(map[string]models.PatientStatus, len(patientIDs))
	if len(patientIDs) == 0 {
		return latest, nil
	}

	var statuses []models.PatientStatus
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cr, err := p.db.Collection(patientStatusName).Find(ctx, bson.M{"patientId": bson.M{"$in": patientIDs}}, opts)
	if err != nil {
		return nil, err
	}
	if err := cr.Decode(&statuses); err != nil {
		return nil, err
	}
	for _, s := range statuses {
		if _, ok := latest[s.PatientID]; !ok {
			latest[s.PatientID] = s
		}
	}
	return latest, nil
}
