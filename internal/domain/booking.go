package domain

import (
	"context"
	"time"
)

type Booking struct {
	ID     string  `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	TourID string  `gorm:"size:36;not null;index" bson:"tour_id" json:"tour"`
	UserID string  `gorm:"size:36;not null;index" bson:"user_id" json:"user"`
	Price  float64 `gorm:"not null" bson:"price" json:"price"`
	Paid   bool    `gorm:"not null" bson:"paid" json:"paid"`
	// SessionID 支付会话 id；同一会话的 webhook 重投只落一条（后台手工创建的为空）
	SessionID *string   `gorm:"size:255;uniqueIndex" bson:"session_id,omitempty" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (Booking) TableName() string { return "bookings" }

type BookingQuery struct {
	UserID string
	TourID string
	Offset int
	Limit  int
}

type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	FindByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, q BookingQuery) ([]Booking, int64, error)
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id string) error
}
