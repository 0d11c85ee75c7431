package repo

import (
	"context"

	"gorm.io/gorm"

	"tour-booking-api/internal/domain"
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo { return &BookingRepo{db: db} }

var _ domain.BookingRepository = (*BookingRepo)(nil)

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingRepo) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *BookingRepo) List(ctx context.Context, q domain.BookingQuery) ([]domain.Booking, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Booking{})
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.TourID != "" {
		tx = tx.Where("tour_id = ?", q.TourID)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(q.Offset, q.Limit)
	var out []domain.Booking
	if err := tx.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *BookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).Where("id = ?", b.ID).
		Select("tour_id", "user_id", "price", "paid").Updates(b)
	return affected(r.db.WithContext(ctx), res, &domain.Booking{}, b.ID)
}

func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Booking{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
