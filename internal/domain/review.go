package domain

import (
	"context"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review 每个 (user, tour) 至多一条
type Review struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Text      string    `gorm:"column:review;type:text;not null" bson:"review" json:"review"`
	Rating    int       `gorm:"not null" bson:"rating" json:"rating"`
	TourID    string    `gorm:"size:36;not null;index;uniqueIndex:idx_review_user_tour,priority:2" bson:"tour_id" json:"tour"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_review_user_tour,priority:1" bson:"user_id" json:"user"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (Review) TableName() string { return "reviews" }

type RatingStats struct {
	Count   int
	Average float64
}

type ReviewQuery struct {
	TourID string
	UserID string
	Offset int
	Limit  int
}

type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id string) (*Review, error)
	List(ctx context.Context, q ReviewQuery) ([]Review, int64, error)
	Update(ctx context.Context, id, text string, rating int) error
	Delete(ctx context.Context, id string) error
	DeleteByTour(ctx context.Context, tourID string) error
	// RatingStats 当前库中该 tour 的评论数与平均分（未取整）
	RatingStats(ctx context.Context, tourID string) (RatingStats, error)
}
