package databases

// go generate: mockery --name ERBedDatabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/dispatch-api/models"
)

const erBedName = "erbeds"

// ERBedDatabase contains the methods to use with the ER bed database
type ERBedDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ERBed, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ERBed, error)
	InsertOne(ctx context.Context, bed models.ERBed) (InsertOneResultHelper, error)
	ReplaceStatus(ctx context.Context, bed models.ERBed, from models.ERBedStatus) (*models.ERBed, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type erBedDatabase struct {
	db DatabaseHelper
}

// NewERBedDatabase initializes a new instance of ER bed database with the provided db connection
func NewERBedDatabase(db DatabaseHelper) ERBedDatabase {
	return &erBedDatabase{
		db: db,
	}
}

func (e *erBedDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ERBed, error) {
	bed := &models.ERBed{}
	err := e.db.Collection(erBedName).FindOne(ctx, filter).Decode(&bed)
	if err != nil {
		return nil, wrapNotFound(err, "er bed")
	}
	return bed, nil
}

func (e *erBedDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ERBed, error) {
	var beds []models.ERBed
	cr, err := e.db.Collection(erBedName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&beds)
	if err != nil {
		return nil, err
	}
	return beds, nil
}

func (e *erBedDatabase) InsertOne(ctx context.Context, bed models.ERBed) (InsertOneResultHelper, error) {
	return e.db.Collection(erBedName).InsertOne(ctx, bed)
}

// ReplaceStatus persists a bed that has been transitioned in memory. The
// write only lands if the stored bed is still in status from, so two
// nurses moving the same bed cannot both win. The loser gets
// ErrInvalidState. Timestamps the bed does not carry are left untouched.
func (e *erBedDatabase) ReplaceStatus(ctx context.Context, bed models.ERBed, from models.ERBedStatus) (*models.ERBed, error) {
	filter := bson.M{"bedId": bed.BedID, "status": from}
	set := bson.M{"status": bed.Status}
	for field, at := range map[string]*time.Time{
		"requestedAt":  bed.RequestedAt,
		"occupiedAt":   bed.OccupiedAt,
		"dischargedAt": bed.DischargedAt,
		"readyAt":      bed.ReadyAt,
	} {
		if at != nil {
			set[field] = *at
		}
	}
	unset := bson.M{}
	if bed.PatientID == "" {
		unset["patientId"] = ""
	} else {
		set["patientId"] = bed.PatientID
	}
	if bed.RequestedBy == "" {
		unset["requestedBy"] = ""
	} else {
		set["requestedBy"] = bed.RequestedBy
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	updated := &models.ERBed{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := e.db.Collection(erBedName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("er bed %s is no longer %s: %w", bed.BedID, from, models.ErrInvalidState)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update er bed %s: %w", bed.BedID, err)
	}
	return updated, nil
}

func (e *erBedDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return e.db.Collection(erBedName).CountDocuments(ctx, filter)
}
