package mongo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
)

type doctorRepository struct {
	coll *mongo.Collection
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = time.Now()
	}
	doctor.UpdatedAt = doctor.CreatedAt
	doctor.EnsureLists()

	if _, err := r.coll.InsertOne(ctx, doctor); err != nil {
		return fmt.Errorf("failed to create doctor: %w", translate(err))
	}
	return nil
}

func (r *doctorRepository) findOne(ctx context.Context, filter bson.M) (*model.Doctor, error) {
	var d model.Doctor
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, translate(err)
	}
	d.EnsureLists()
	return &d, nil
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *doctorRepository) GetMany(ctx context.Context, ids []string) (map[string]*model.Doctor, error) {
	out := make(map[string]*model.Doctor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	doctors, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		out[d.ID] = d
	}
	return out, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	doctor.UpdatedAt = time.Now()
	doctor.EnsureLists()
	update := bson.M{"$set": bson.M{
		"name":           doctor.Name,
		"phone":          doctor.Phone,
		"photo":          doctor.Photo,
		"gender":         doctor.Gender,
		"ticketPrice":    doctor.TicketPrice,
		"specialization": doctor.Specialization,
		"qualifications": doctor.Qualifications,
		"experiences":    doctor.Experiences,
		"bio":            doctor.Bio,
		"about":          doctor.About,
		"timeSlots":      doctor.TimeSlots,
		"updatedAt":      doctor.UpdatedAt,
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": doctor.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) UpdateReviews(ctx context.Context, doctor *model.Doctor, expectedTotal int) error {
	doctor.UpdatedAt = time.Now()
	filter := bson.M{"_id": doctor.ID, "totalRating": expectedTotal}
	update := bson.M{"$set": bson.M{
		"reviews":       doctor.Reviews,
		"averageRating": doctor.AverageRating,
		"totalRating":   doctor.TotalRating,
		"updatedAt":     doctor.UpdatedAt,
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update reviews: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": doctor.ID})
	if err != nil {
		return fmt.Errorf("failed to check doctor: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *doctorRepository) SetApproval(ctx context.Context, id string, status model.ApprovalStatus) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isApproved": status,
		"updatedAt":  time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to set approval: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, f model.DoctorFilter) ([]*model.Doctor, error) {
	filter := bson.M{}
	if f.Approval != "" {
		filter["isApproved"] = f.Approval
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"specialization": re},
		}
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *doctorRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Doctor, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer cursor.Close(ctx)

	doctors := make([]*model.Doctor, 0)
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	for _, d := range doctors {
		d.EnsureLists()
	}
	return doctors, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}
