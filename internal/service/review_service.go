package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/domain"
	"tour-booking-api/pkg/utils"
)

type ReviewInput struct {
	Review string `json:"review" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

type ReviewPatch struct {
	Review *string `json:"review"`
	Rating *int    `json:"rating"`
}

type ReviewService struct {
	reviews domain.ReviewRepository
	tours   domain.TourRepository
	agg     *RatingAggregator
	policy  *bluemonday.Policy
	now     func() time.Time
}

func NewReviewService(reviews domain.ReviewRepository, tours domain.TourRepository, agg *RatingAggregator) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		tours:   tours,
		agg:     agg,
		policy:  bluemonday.StrictPolicy(),
		now:     time.Now,
	}
}

// sanitize 去掉所有 HTML，结果为空视为非法
func (s *ReviewService) sanitize(text string) (string, error) {
	clean := strings.TrimSpace(s.policy.Sanitize(text))
	if clean == "" {
		return "", apperr.Validation("Review can not be empty!")
	}
	return clean, nil
}

func (s *ReviewService) List(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, int64, error) {
	out, total, err := s.reviews.List(ctx, q)
	if err != nil {
		return nil, 0, repoErr(err, "review")
	}
	return out, total, nil
}

func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	r, err := s.reviews.FindByID(ctx, id)
	return r, repoErr(err, "review")
}

func (s *ReviewService) Create(ctx context.Context, actor *domain.User, tourID string, in ReviewInput) (*domain.Review, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	text, err := s.sanitize(in.Review)
	if err != nil {
		return nil, err
	}
	if _, err := s.tours.FindByID(ctx, tourID); err != nil {
		return nil, repoErr(err, "tour")
	}
	r := &domain.Review{
		ID:        utils.NewID(),
		Text:      text,
		Rating:    in.Rating,
		TourID:    tourID,
		UserID:    actor.ID,
		CreatedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, "You have already reviewed this tour", err)
		}
		return nil, repoErr(err, "review")
	}
	s.agg.Recompute(ctx, tourID)
	return r, nil
}

// owned 非 admin 只能操作自己的评论
func (s *ReviewService) owned(ctx context.Context, actor *domain.User, id string) (*domain.Review, error) {
	r, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "review")
	}
	if actor.Role != domain.RoleAdmin && r.UserID != actor.ID {
		return nil, apperr.Forbidden("You can only modify your own reviews")
	}
	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, actor *domain.User, id string, p ReviewPatch) (*domain.Review, error) {
	r, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in := ReviewInput{Review: r.Text, Rating: r.Rating}
	if p.Review != nil {
		in.Review = *p.Review
	}
	if p.Rating != nil {
		in.Rating = *p.Rating
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	text, err := s.sanitize(in.Review)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Update(ctx, id, text, in.Rating); err != nil {
		return nil, repoErr(err, "review")
	}
	s.agg.Recompute(ctx, r.TourID)
	r.Text, r.Rating = text, in.Rating
	return r, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor *domain.User, id string) error {
	r, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return repoErr(err, "review")
	}
	s.agg.Recompute(ctx, r.TourID)
	return nil
}
