package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/medibook-api/internal/model"
)

type bookingRepository struct {
	coll *mongo.Collection
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	booking.UpdatedAt = booking.CreatedAt

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", translate(err))
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepository) findOneAndSet(ctx context.Context, filter bson.M, set bson.M) (*model.Booking, error) {
	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var b model.Booking
	if err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&b); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	return r.findOneAndSet(ctx, bson.M{"_id": id}, bson.M{"status": status})
}

func (r *bookingRepository) MarkPaidBySession(ctx context.Context, session string) (*model.Booking, error) {
	return r.findOneAndSet(ctx, bson.M{"session": session}, bson.M{"isPaid": true})
}

func (r *bookingRepository) list(ctx context.Context, filter bson.M, dateOrder int) ([]*model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: dateOrder}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Booking, error) {
	return r.list(ctx, bson.M{"user": patientID}, 1)
}

func (r *bookingRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Booking, error) {
	return r.list(ctx, bson.M{"doctor": doctorID}, 1)
}

func (r *bookingRepository) ListAll(ctx context.Context) ([]*model.Booking, error) {
	return r.list(ctx, bson.M{}, -1)
}

func (r *bookingRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *bookingRepository) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"user": patientID})
}

func (r *bookingRepository) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"doctor": doctorID})
}

func (r *bookingRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

func (r *bookingRepository) CountByStatus(ctx context.Context) (map[model.BookingStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status model.BookingStatus `bson:"_id"`
		Count  int64               `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	counts := make(map[model.BookingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
