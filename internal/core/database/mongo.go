package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/config"
)

// 集合名与 gorm 表名保持一致
const (
	CollUsers    = "users"
	CollTours    = "tours"
	CollReviews  = "reviews"
	CollBookings = "bookings"
)

// NewMongo 连接并 ping，返回 client 与目标库
func NewMongo(ctx context.Context, o config.Mongo, l *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	if strings.TrimSpace(o.URI) == "" {
		return nil, nil, errors.New("database: mongo.uri is required")
	}
	timeout := time.Duration(o.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(o.URI).SetTimeout(timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	l.Info("mongo connected", zap.String("database", o.Database))
	return client, client.Database(o.Database), nil
}

// EnsureMongoIndexes 幂等；所有集合的问题汇总后一起返回
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	want := map[string][]mongo.IndexModel{
		CollUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("idx_users_email").SetUnique(true)},
			{Keys: bson.D{{Key: "password_reset_token", Value: 1}}, Options: options.Index().SetName("idx_users_reset_token").SetSparse(true)},
		},
		CollTours: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("idx_tours_name").SetUnique(true)},
			{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratings_average", Value: -1}}, Options: options.Index().SetName("idx_tours_price_rating")},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName("idx_tours_slug")},
		},
		CollReviews: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "tour_id", Value: 1}}, Options: options.Index().SetName("idx_review_user_tour").SetUnique(true)},
			{Keys: bson.D{{Key: "tour_id", Value: 1}}, Options: options.Index().SetName("idx_review_tour")},
		},
		CollBookings: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("idx_bookings_user")},
			{Keys: bson.D{{Key: "tour_id", Value: 1}}, Options: options.Index().SetName("idx_bookings_tour")},
			{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetName("idx_bookings_session").SetUnique(true).SetSparse(true)},
		},
	}
	var problems []string
	for _, coll := range []string{CollUsers, CollTours, CollReviews, CollBookings} {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, want[coll]); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
