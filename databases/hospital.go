package databases

// go generate: mockery --name HospitalDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dispatch-api/models"
)

const hospitalName = "hospitals"

// HospitalDatabase contains the methods to use with the hospital database
type HospitalDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Hospital, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Hospital, error)
	InsertOne(ctx context.Context, hospital models.Hospital) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) error
}

type hospitalDatabase struct {
	db DatabaseHelper
}

// NewHospitalDatabase initializes a new instance of hospital database with the provided db connection
func NewHospitalDatabase(db DatabaseHelper) HospitalDatabase {
	return &hospitalDatabase{
		db: db,
	}
}

func (h *hospitalDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Hospital, error) {
	hospital := &models.Hospital{}
	err := h.db.Collection(hospitalName).FindOne(ctx, filter).Decode(&hospital)
	if err != nil {
		return nil, wrapNotFound(err, "hospital")
	}
	return hospital, nil
}

func (h *hospitalDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Hospital, error) {
	var hospitals []models.Hospital
	cr, err := h.db.Collection(hospitalName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&hospitals)
	if err != nil {
		return nil, err
	}
	return hospitals, nil
}

func (h *hospitalDatabase) InsertOne(ctx context.Context, hospital models.Hospital) (InsertOneResultHelper, error) {
	return h.db.Collection(hospitalName).InsertOne(ctx, hospital)
}

func (h *hospitalDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) error {
	res, err := h.db.Collection(hospitalName).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res != nil && res.MatchedCount == 0 {
		return notFound("hospital")
	}
	return nil
}
