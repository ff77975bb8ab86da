package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
)

type patientRepository struct {
	coll *mongo.Collection
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now()
	}
	patient.UpdatedAt = patient.CreatedAt

	if _, err := r.coll.InsertOne(ctx, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", translate(err))
	}
	return nil
}

func (r *patientRepository) findOne(ctx context.Context, filter bson.M) (*model.Patient, error) {
	var p model.Patient
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *patientRepository) Get(ctx context.Context, id string) (*model.Patient, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *patientRepository) GetMany(ctx context.Context, ids []string) (map[string]*model.Patient, error) {
	out := make(map[string]*model.Patient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	patients, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range patients {
		out[p.ID] = p
	}
	return out, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	patient.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":       patient.Name,
		"phone":      patient.Phone,
		"photo":      patient.Photo,
		"gender":     patient.Gender,
		"bloodGroup": patient.BloodGroup,
		"role":       patient.Role,
		"password":   patient.PasswordHash,
		"updatedAt":  patient.UpdatedAt,
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": patient.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *patientRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Patient, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := make([]*model.Patient, 0)
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return n, nil
}
