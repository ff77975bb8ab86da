package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jwalitptl/medibook-api/internal/repository"
)

const (
	patientsCollection = "users"
	doctorsCollection  = "doctors"
	bookingsCollection = "bookings"
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Connect dials the deployment and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// NewStore wires the repositories over one database.
func NewStore(client *mongo.Client, database string) *repository.Store {
	db := client.Database(database)
	return &repository.Store{
		Patients: &patientRepository{coll: db.Collection(patientsCollection)},
		Doctors:  &doctorRepository{coll: db.Collection(doctorsCollection)},
		Bookings: &bookingRepository{coll: db.Collection(bookingsCollection)},
		Health:   pinger{client: client},
		Close:    client.Disconnect,
	}
}

type pinger struct {
	client *mongo.Client
}

func (p pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the unique email indexes and booking lookup indexes.
func EnsureIndexes(ctx context.Context, client *mongo.Client, database string) error {
	db := client.Database(database)
	unique := options.Index().SetUnique(true)

	specs := map[string][]mongo.IndexModel{
		patientsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		doctorsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "isApproved", Value: 1}}},
		},
		bookingsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "appointmentDate", Value: 1}}},
			{Keys: bson.D{{Key: "doctor", Value: 1}, {Key: "appointmentDate", Value: 1}}},
			{Keys: bson.D{{Key: "session", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicateKey
	}
	return err
}
