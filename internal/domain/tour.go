package domain

import (
	"context"
	"math"
	"time"
)

const DefaultRatingsAverage = 4.5

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Tour 的 RatingsAverage / RatingsQuantity 只由评分聚合器通过 UpdateRatings 写入
type Tour struct {
	ID              string      `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name            string      `gorm:"uniqueIndex;size:64;not null" bson:"name" json:"name"`
	Slug            string      `gorm:"index;size:96" bson:"slug" json:"slug"`
	Duration        int         `gorm:"not null" bson:"duration" json:"duration"`
	MaxGroupSize    int         `gorm:"not null" bson:"max_group_size" json:"maxGroupSize"`
	Difficulty      Difficulty  `gorm:"size:16;not null" bson:"difficulty" json:"difficulty"`
	RatingsAverage  float64     `gorm:"not null;default:4.5" bson:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int         `gorm:"not null;default:0" bson:"ratings_quantity" json:"ratingsQuantity"`
	Price           float64     `gorm:"not null;index:idx_tour_price_rating,priority:1" bson:"price" json:"price"`
	PriceDiscount   float64     `bson:"price_discount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string      `gorm:"size:255;not null" bson:"summary" json:"summary"`
	Description     string      `gorm:"type:text" bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string      `gorm:"size:255;not null" bson:"image_cover" json:"imageCover"`
	Images          []string    `gorm:"serializer:json" bson:"images,omitempty" json:"images,omitempty"`
	StartDates      []time.Time `gorm:"serializer:json" bson:"start_dates,omitempty" json:"startDates,omitempty"`
	Secret          bool        `gorm:"not null;default:false" bson:"secret" json:"-"`
	CreatedAt       time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `bson:"updated_at" json:"-"`
}

func (Tour) TableName() string { return "tours" }

// DurationWeeks 原始数据里的虚拟字段
func (t *Tour) DurationWeeks() float64 { return float64(t.Duration) / 7 }

// RoundRating 4.6666 -> 4.7
func RoundRating(v float64) float64 { return math.Round(v*10) / 10 }

type TourQuery struct {
	Difficulty Difficulty
	MinPrice   *float64
	MaxPrice   *float64
	// Sort: price, -price, ratingsAverage, -ratingsAverage, createdAt, -createdAt
	Sort   string
	Offset int
	Limit  int
}

// TourRepository 的读取默认隐藏 Secret 旅行
type TourRepository interface {
	Create(ctx context.Context, t *Tour) error
	FindByID(ctx context.Context, id string) (*Tour, error)
	FindByIDs(ctx context.Context, ids []string) ([]Tour, error)
	List(ctx context.Context, q TourQuery) ([]Tour, int64, error)
	// Update 写回除评分字段外的所有可变字段
	Update(ctx context.Context, t *Tour) error
	Delete(ctx context.Context, id string) error
	UpdateRatings(ctx context.Context, id string, average float64, quantity int) error
}
