package databases

// go generate: mockery --name IncidentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dispatch-api/models"
)

const incidentName = "incidents"

// IncidentDatabase contains the methods to use with the incident database
type IncidentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Incident, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error)
	InsertOne(ctx context.Context, incident models.Incident) (InsertOneResultHelper, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Incident, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type incidentDatabase struct {
	db DatabaseHelper
}

// NewIncidentDatabase initializes a new instance of incident database with the provided db connection
func NewIncidentDatabase(db DatabaseHelper) IncidentDatabase {
	return &incidentDatabase{
		db: db,
	}
}

func (i *incidentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Incident, error) {
	incident := &models.Incident{}
	err := i.db.Collection(incidentName).FindOne(ctx, filter).Decode(&incident)
	if err != nil {
		return nil, wrapNotFound(err, "incident")
	}
	return incident, nil
}

func (i *incidentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error) {
	var incidents []models.Incident
	cr, err := i.db.Collection(incidentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&incidents)
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

func (i *incidentDatabase) InsertOne(ctx context.Context, incident models.Incident) (InsertOneResultHelper, error) {
	return i.db.Collection(incidentName).InsertOne(ctx, incident)
}

// FindOneAndUpdate applies update to the first match of filter and returns
// the document as it is after the update
func (i *incidentDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Incident, error) {
	incident := &models.Incident{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := i.db.Collection(incidentName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&incident)
	if err != nil {
		return nil, wrapNotFound(err, "incident")
	}
	return incident, nil
}

// UpdateMany applies update to every match of filter and returns how many
// documents were modified
func (i *incidentDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	res, err := i.db.Collection(incidentName).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (i *incidentDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return i.db.Collection(incidentName).CountDocuments(ctx, filter)
}
