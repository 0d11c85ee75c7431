package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tour-booking-api/internal/core/database"
	"tour-booking-api/internal/domain"
)

type TourStore struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewTourStore(db *mongo.Database) *TourStore {
	return &TourStore{c: db.Collection(database.CollTours), now: time.Now}
}

var _ domain.TourRepository = (*TourStore)(nil)

var tourSorts = map[string]bson.D{
	"price":           {{Key: "price", Value: 1}},
	"-price":          {{Key: "price", Value: -1}},
	"ratingsAverage":  {{Key: "ratings_average", Value: 1}},
	"-ratingsAverage": {{Key: "ratings_average", Value: -1}},
	"createdAt":       {{Key: "created_at", Value: 1}},
	"-createdAt":      {{Key: "created_at", Value: -1}},
	"duration":        {{Key: "duration", Value: 1}},
	"-duration":       {{Key: "duration", Value: -1}},
}

func visible(filter bson.M) bson.M {
	filter["secret"] = bson.M{"$ne": true}
	return filter
}

func (s *TourStore) Create(ctx context.Context, t *domain.Tour) error {
	now := s.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, t)
	return translate(err)
}

func (s *TourStore) FindByID(ctx context.Context, id string) (*domain.Tour, error) {
	var t domain.Tour
	if err := s.c.FindOne(ctx, visible(bson.M{"_id": id})).Decode(&t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *TourStore) FindByIDs(ctx context.Context, ids []string) ([]domain.Tour, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, visible(bson.M{"_id": bson.M{"$in": ids}}))
	if err != nil {
		return nil, err
	}
	var out []domain.Tour
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TourStore) List(ctx context.Context, q domain.TourQuery) ([]domain.Tour, int64, error) {
	filter := visible(bson.M{})
	if q.Difficulty != "" {
		filter["difficulty"] = q.Difficulty
	}
	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	sort, ok := tourSorts[q.Sort]
	if !ok {
		sort = tourSorts["-createdAt"]
	}
	cur, err := s.c.Find(ctx, filter, pageOpts(q.Offset, q.Limit).SetSort(sort))
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Tour
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *TourStore) Update(ctx context.Context, t *domain.Tour) error {
	set := bson.M{
		"name":           t.Name,
		"slug":           t.Slug,
		"duration":       t.Duration,
		"max_group_size": t.MaxGroupSize,
		"difficulty":     t.Difficulty,
		"price":          t.Price,
		"price_discount": t.PriceDiscount,
		"summary":        t.Summary,
		"description":    t.Description,
		"image_cover":    t.ImageCover,
		"images":         t.Images,
		"start_dates":    t.StartDates,
		"secret":         t.Secret,
		"updated_at":     s.now().UTC(),
	}
	return matched(s.c.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set}))
}

func (s *TourStore) Delete(ctx context.Context, id string) error {
	return deleted(s.c.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *TourStore) UpdateRatings(ctx context.Context, id string, average float64, quantity int) error {
	return matched(s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"ratings_average":  average,
		"ratings_quantity": quantity,
	}}))
}
