package repo

import (
	"context"

	"gorm.io/gorm"

	"tour-booking-api/internal/domain"
)

type ReviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) *ReviewRepo { return &ReviewRepo{db: db} }

var _ domain.ReviewRepository = (*ReviewRepo)(nil)

func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	return translate(r.db.WithContext(ctx).Create(rv).Error)
}

func (r *ReviewRepo) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).First(&rv, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rv, nil
}

func (r *ReviewRepo) List(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Review{})
	if q.TourID != "" {
		tx = tx.Where("tour_id = ?", q.TourID)
	}
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(q.Offset, q.Limit)
	var out []domain.Review
	if err := tx.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ReviewRepo) Update(ctx context.Context, id, text string, rating int) error {
	res := r.db.WithContext(ctx).Model(&domain.Review{}).Where("id = ?", id).Updates(map[string]any{
		"review": text,
		"rating": rating,
	})
	return affected(r.db.WithContext(ctx), res, &domain.Review{}, id)
}

func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Review{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReviewRepo) DeleteByTour(ctx context.Context, tourID string) error {
	return r.db.WithContext(ctx).Where("tour_id = ?", tourID).Delete(&domain.Review{}).Error
}

func (r *ReviewRepo) RatingStats(ctx context.Context, tourID string) (domain.RatingStats, error) {
	var row struct {
		N   int
		Avg float64
	}
	err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Select("COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg").
		Where("tour_id = ?", tourID).
		Scan(&row).Error
	if err != nil {
		return domain.RatingStats{}, err
	}
	return domain.RatingStats{Count: row.N, Average: row.Avg}, nil
}
