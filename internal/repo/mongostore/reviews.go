package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-booking-api/internal/core/database"
	"tour-booking-api/internal/domain"
)

type ReviewStore struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewReviewStore(db *mongo.Database) *ReviewStore {
	return &ReviewStore{c: db.Collection(database.CollReviews), now: time.Now}
}

var _ domain.ReviewRepository = (*ReviewStore)(nil)

func (s *ReviewStore) Create(ctx context.Context, r *domain.Review) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	_, err := s.c.InsertOne(ctx, r)
	return translate(err)
}

func (s *ReviewStore) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	var r domain.Review
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *ReviewStore) List(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, int64, error) {
	filter := bson.M{}
	if q.TourID != "" {
		filter["tour_id"] = q.TourID
	}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, pageOpts(q.Offset, q.Limit).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Review
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *ReviewStore) Update(ctx context.Context, id, text string, rating int) error {
	return matched(s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"review": text, "rating": rating}}))
}

func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	return deleted(s.c.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *ReviewStore) DeleteByTour(ctx context.Context, tourID string) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"tour_id": tourID})
	return err
}

// RatingStats $match + $group；无评论时返回零值
func (s *ReviewStore) RatingStats(ctx context.Context, tourID string) (domain.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "tour_id", Value: tourID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour_id"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingStats{}, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		N   int     `bson:"n"`
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.RatingStats{}, err
	}
	if len(rows) == 0 {
		return domain.RatingStats{}, nil
	}
	return domain.RatingStats{Count: rows[0].N, Average: rows[0].Avg}, nil
}
