package repo

import (
	"context"

	"gorm.io/gorm"

	"tour-booking-api/internal/domain"
)

type TourRepo struct{ db *gorm.DB }

func NewTourRepo(db *gorm.DB) *TourRepo { return &TourRepo{db: db} }

var _ domain.TourRepository = (*TourRepo)(nil)

var tourSorts = map[string]string{
	"price":           "price asc",
	"-price":          "price desc",
	"ratingsAverage":  "ratings_average asc",
	"-ratingsAverage": "ratings_average desc",
	"createdAt":       "created_at asc",
	"-createdAt":      "created_at desc",
	"duration":        "duration asc",
	"-duration":       "duration desc",
}

// 评分字段不在其中，只能走 UpdateRatings
var tourMutable = []string{
	"name", "slug", "duration", "max_group_size", "difficulty", "price", "price_discount",
	"summary", "description", "image_cover", "images", "start_dates", "secret", "updated_at",
}

func (r *TourRepo) visible(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Tour{}).Where("secret = ?", false)
}

func (r *TourRepo) Create(ctx context.Context, t *domain.Tour) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *TourRepo) FindByID(ctx context.Context, id string) (*domain.Tour, error) {
	var t domain.Tour
	if err := r.visible(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TourRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Tour, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Tour
	if err := r.visible(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TourRepo) List(ctx context.Context, q domain.TourQuery) ([]domain.Tour, int64, error) {
	tx := r.visible(ctx)
	if q.Difficulty != "" {
		tx = tx.Where("difficulty = ?", q.Difficulty)
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order, ok := tourSorts[q.Sort]
	if !ok {
		order = "created_at desc"
	}
	offset, limit := page(q.Offset, q.Limit)
	var out []domain.Tour
	if err := tx.Order(order).Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *TourRepo) Update(ctx context.Context, t *domain.Tour) error {
	res := r.db.WithContext(ctx).Model(&domain.Tour{}).Where("id = ?", t.ID).Select(tourMutable).Updates(t)
	return affected(r.db.WithContext(ctx), res, &domain.Tour{}, t.ID)
}

func (r *TourRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Tour{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TourRepo) UpdateRatings(ctx context.Context, id string, average float64, quantity int) error {
	res := r.db.WithContext(ctx).Model(&domain.Tour{}).Where("id = ?", id).Updates(map[string]any{
		"ratings_average":  average,
		"ratings_quantity": quantity,
	})
	return affected(r.db.WithContext(ctx), res, &domain.Tour{}, id)
}
