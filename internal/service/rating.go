package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tour-booking-api/internal/core/cache"
	"tour-booking-api/internal/domain"
)

// RatingAggregator 是 Tour.RatingsAverage / RatingsQuantity 的唯一写入方
type RatingAggregator struct {
	reviews domain.ReviewRepository
	tours   domain.TourRepository
	cache   *cache.Cache
	log     *zap.Logger
	timeout time.Duration
}

func NewRatingAggregator(reviews domain.ReviewRepository, tours domain.TourRepository, c *cache.Cache, log *zap.Logger) *RatingAggregator {
	return &RatingAggregator{reviews: reviews, tours: tours, cache: c, log: log, timeout: 5 * time.Second}
}

// Recompute 在评论写入成功后调用。失败只记日志和计数，tour 上的聚合值保持旧值直到下一次写入。
func (a *RatingAggregator) Recompute(ctx context.Context, tourID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()
	if err := a.recompute(ctx, tourID); err != nil {
		ratingFailures.Inc()
		a.log.Error("rating recompute failed", zap.String("tour_id", tourID), zap.Error(err))
	}
}

func (a *RatingAggregator) recompute(ctx context.Context, tourID string) error {
	st, err := a.reviews.RatingStats(ctx, tourID)
	if err != nil {
		return err
	}
	avg, qty := domain.DefaultRatingsAverage, 0
	if st.Count > 0 {
		avg, qty = domain.RoundRating(st.Average), st.Count
	}
	if err := a.tours.UpdateRatings(ctx, tourID, avg, qty); err != nil {
		return err
	}
	if err := a.cache.Del(ctx, cache.TourKey(tourID)); err != nil {
		a.log.Warn("tour cache invalidation failed", zap.String("tour_id", tourID), zap.Error(err))
	}
	return nil
}
