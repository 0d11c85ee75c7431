package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-booking-api/internal/core/database"
	"tour-booking-api/internal/domain"
)

type BookingStore struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewBookingStore(db *mongo.Database) *BookingStore {
	return &BookingStore{c: db.Collection(database.CollBookings), now: time.Now}
}

var _ domain.BookingRepository = (*BookingStore)(nil)

func (s *BookingStore) Create(ctx context.Context, b *domain.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	_, err := s.c.InsertOne(ctx, b)
	return translate(err)
}

func (s *BookingStore) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *BookingStore) List(ctx context.Context, q domain.BookingQuery) ([]domain.Booking, int64, error) {
	filter := bson.M{}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}
	if q.TourID != "" {
		filter["tour_id"] = q.TourID
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, pageOpts(q.Offset, q.Limit).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *BookingStore) Update(ctx context.Context, b *domain.Booking) error {
	return matched(s.c.UpdateOne(ctx, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{
		"tour_id": b.TourID,
		"user_id": b.UserID,
		"price":   b.Price,
		"paid":    b.Paid,
	}}))
}

func (s *BookingStore) Delete(ctx context.Context, id string) error {
	return deleted(s.c.DeleteOne(ctx, bson.M{"_id": id}))
}
