package databases

// go generate: mockery --name PatientDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dispatch-api/models"
)

const patientName = "patients"

// PatientDatabase contains the methods to use with the patient database
type PatientDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Patient, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Patient, error)
	InsertOne(ctx context.Context, patient models.Patient) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) error
}

type patientDatabase struct {
	db DatabaseHelper
}

// NewPatientDatabase initializes a new instance of patient database with the provided db connection
func NewPatientDatabase(db DatabaseHelper) PatientDatabase {
	return &patientDatabase{
		db: db,
	}
}

func (p *patientDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Patient, error) {
	patient := &models.Patient{}
	err := p.db.Collection(patientName).FindOne(ctx, filter).Decode(&patient)
	if err != nil {
		return nil, wrapNotFound(err, "patient")
	}
	return patient, nil
}

func (p *patientDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Patient, error) {
	var patients []models.Patient
	cr, err := p.db.Collection(patientName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&patients)
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (p *patientDatabase) InsertOne(ctx context.Context, patient models.Patient) (InsertOneResultHelper, error) {
	return p.db.Collection(patientName).InsertOne(ctx, patient)
}

func (p *patientDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) error {
	res, err := p.db.Collection(patientName).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res != nil && res.MatchedCount == 0 {
		return notFound("patient")
	}
	return nil
}
