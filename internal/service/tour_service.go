package service

import (
	"context"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/cache"
	"tour-booking-api/internal/domain"
	"tour-booking-api/pkg/utils"
)

type TourInput struct {
	Name          string      `json:"name" validate:"required,min=10,max=40"`
	Duration      int         `json:"duration" validate:"required,gt=0"`
	MaxGroupSize  int         `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty    string      `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64     `json:"price" validate:"required,gt=0"`
	PriceDiscount float64     `json:"priceDiscount" validate:"gte=0,ltfield=Price"`
	Summary       string      `json:"summary" validate:"required,max=255"`
	Description   string      `json:"description"`
	ImageCover    string      `json:"imageCover" validate:"required"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"startDates"`
	Secret        bool        `json:"secretTour"`
}

// TourPatch nil 字段保持原值；评分字段不在其中
type TourPatch struct {
	Name          *string      `json:"name"`
	Duration      *int         `json:"duration"`
	MaxGroupSize  *int         `json:"maxGroupSize"`
	Difficulty    *string      `json:"difficulty"`
	Price         *float64     `json:"price"`
	PriceDiscount *float64     `json:"priceDiscount"`
	Summary       *string      `json:"summary"`
	Description   *string      `json:"description"`
	ImageCover    *string      `json:"imageCover"`
	Images        *[]string    `json:"images"`
	StartDates    *[]time.Time `json:"startDates"`
	Secret        *bool        `json:"secretTour"`
}

type TourService struct {
	tours   domain.TourRepository
	reviews domain.ReviewRepository
	cache   *cache.Cache
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewTourService(tours domain.TourRepository, reviews domain.ReviewRepository, c *cache.Cache, ttl time.Duration, log *zap.Logger) *TourService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TourService{tours: tours, reviews: reviews, cache: c, ttl: ttl, log: log, now: time.Now}
}

func (s *TourService) List(ctx context.Context, q domain.TourQuery) ([]domain.Tour, int64, error) {
	out, total, err := s.tours.List(ctx, q)
	if err != nil {
		return nil, 0, repoErr(err, "tour")
	}
	return out, total, nil
}

func (s *TourService) Get(ctx context.Context, id string) (*domain.Tour, error) {
	t, err := cache.GetOrLoadJSON(s.cache, ctx, cache.TourKey(id), s.ttl, func(ctx context.Context) (*domain.Tour, error) {
		return s.tours.FindByID(ctx, id)
	})
	if err != nil {
		return nil, repoErr(err, "tour")
	}
	if t == nil {
		return nil, repoErr(domain.ErrNotFound, "tour")
	}
	return t, nil
}

func (s *TourService) Create(ctx context.Context, in TourInput) (*domain.Tour, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := s.now()
	t := &domain.Tour{
		ID:              utils.NewID(),
		RatingsAverage:  domain.DefaultRatingsAverage,
		RatingsQuantity: 0,
		CreatedAt:       now,
	}
	fill(t, in)
	t.UpdatedAt = now
	if err := s.tours.Create(ctx, t); err != nil {
		return nil, repoErr(err, "tour")
	}
	return t, nil
}

func (s *TourService) Update(ctx context.Context, id string, p TourPatch) (*domain.Tour, error) {
	cur, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "tour")
	}
	in := merge(toInput(cur), p)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	fill(cur, in)
	cur.UpdatedAt = s.now()
	if err := s.tours.Update(ctx, cur); err != nil {
		return nil, repoErr(err, "tour")
	}
	s.invalidate(ctx, id)
	return cur, nil
}

// Delete 同时删除该 tour 的全部评论
func (s *TourService) Delete(ctx context.Context, id string) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return repoErr(err, "tour")
	}
	if err := s.reviews.DeleteByTour(ctx, id); err != nil {
		s.log.Error("delete tour reviews failed", zap.String("tour_id", id), zap.Error(err))
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *TourService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, cache.TourKey(id)); err != nil {
		s.log.Warn("tour cache invalidation failed", zap.String("tour_id", id), zap.Error(err))
	}
}

func fill(t *domain.Tour, in TourInput) {
	t.Name = in.Name
	t.Slug = slug.Make(in.Name)
	t.Duration = in.Duration
	t.MaxGroupSize = in.MaxGroupSize
	t.Difficulty = domain.Difficulty(in.Difficulty)
	t.Price = in.Price
	t.PriceDiscount = in.PriceDiscount
	t.Summary = in.Summary
	t.Description = in.Description
	t.ImageCover = in.ImageCover
	t.Images = in.Images
	t.StartDates = in.StartDates
	t.Secret = in.Secret
}

func toInput(t *domain.Tour) TourInput {
	return TourInput{
		Name: t.Name, Duration: t.Duration, MaxGroupSize: t.MaxGroupSize, Difficulty: string(t.Difficulty),
		Price: t.Price, PriceDiscount: t.PriceDiscount, Summary: t.Summary, Description: t.Description,
		ImageCover: t.ImageCover, Images: t.Images, StartDates: t.StartDates, Secret: t.Secret,
	}
}

func merge(in TourInput, p TourPatch) TourInput {
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Duration != nil {
		in.Duration = *p.Duration
	}
	if p.MaxGroupSize != nil {
		in.MaxGroupSize = *p.MaxGroupSize
	}
	if p.Difficulty != nil {
		in.Difficulty = *p.Difficulty
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.PriceDiscount != nil {
		in.PriceDiscount = *p.PriceDiscount
	}
	if p.Summary != nil {
		in.Summary = *p.Summary
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.ImageCover != nil {
		in.ImageCover = *p.ImageCover
	}
	if p.Images != nil {
		in.Images = *p.Images
	}
	if p.StartDates != nil {
		in.StartDates = *p.StartDates
	}
	if p.Secret != nil {
		in.Secret = *p.Secret
	}
	return in
}
