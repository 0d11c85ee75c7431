package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/core/payment"
	"tour-booking-api/internal/domain"
	"tour-booking-api/pkg/utils"
)

type BookingInput struct {
	Tour  string  `json:"tour" validate:"required"`
	User  string  `json:"user" validate:"required"`
	Price float64 `json:"price" validate:"required,gt=0"`
	Paid  *bool   `json:"paid"`
}

type BookingPatch struct {
	Tour  *string  `json:"tour"`
	User  *string  `json:"user"`
	Price *float64 `json:"price" validate:"omitempty,gt=0"`
	Paid  *bool    `json:"paid"`
}

type BookingService struct {
	bookings  domain.BookingRepository
	tours     domain.TourRepository
	users     domain.UserRepository
	gateway   payment.Gateway
	imageBase string
	log       *zap.Logger
	now       func() time.Time
}

func NewBookingService(b domain.BookingRepository, t domain.TourRepository, u domain.UserRepository, g payment.Gateway, imageBase string, log *zap.Logger) *BookingService {
	return &BookingService{
		bookings:  b,
		tours:     t,
		users:     u,
		gateway:   g,
		imageBase: strings.TrimRight(imageBase, "/"),
		log:       log,
		now:       time.Now,
	}
}

// CheckoutSession origin 为前端站点根地址，用于拼 success / cancel 跳转
func (s *BookingService) CheckoutSession(ctx context.Context, user *domain.User, tourID, origin string) (*payment.CheckoutSession, error) {
	t, err := s.tours.FindByID(ctx, tourID)
	if err != nil {
		return nil, repoErr(err, "tour")
	}
	origin = strings.TrimRight(origin, "/")
	req := payment.CheckoutRequest{
		TourID:        t.ID,
		TourName:      t.Name,
		Summary:       t.Summary,
		Price:         t.Price,
		CustomerEmail: user.Email,
		SuccessURL:    origin + "/my-tours?alert=booking",
		CancelURL:     origin + "/tour/" + t.Slug,
	}
	if s.imageBase != "" && t.ImageCover != "" {
		req.ImageURL = s.imageBase + "/" + t.ImageCover
	}
	sess, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, apperr.Delivery("Could not create checkout session. Try again later!", err)
	}
	return sess, nil
}

// HandleWebhook 只处理已验签的 checkout.session.completed
func (s *BookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	done, err := s.gateway.ParseCompletedCheckout(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			return apperr.Wrap(apperr.KindValidation, "Webhook error: invalid signature", err)
		}
		return apperr.Wrap(apperr.KindValidation, "Webhook error: malformed event", err)
	}
	if done == nil {
		return nil
	}
	u, err := s.users.FindByEmail(ctx, normalizeEmail(done.CustomerEmail))
	if err != nil {
		return repoErr(err, "user")
	}
	b := &domain.Booking{
		ID:        utils.NewID(),
		TourID:    done.TourID,
		UserID:    u.ID,
		Price:     done.Amount,
		Paid:      true,
		CreatedAt: s.now(),
	}
	if done.SessionID != "" {
		b.SessionID = &done.SessionID
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		// Stripe 会重投同一事件
		if errors.Is(err, domain.ErrDuplicate) && b.SessionID != nil {
			s.log.Info("checkout already recorded", zap.String("session_id", done.SessionID))
			return nil
		}
		return repoErr(err, "booking")
	}
	s.log.Info("booking created from checkout", zap.String("booking_id", b.ID), zap.String("tour_id", b.TourID))
	return nil
}

// MyBookings 用户的预订以及对应的 tour
func (s *BookingService) MyBookings(ctx context.Context, userID string) ([]domain.Booking, []domain.Tour, error) {
	bs, _, err := s.bookings.List(ctx, domain.BookingQuery{UserID: userID})
	if err != nil {
		return nil, nil, repoErr(err, "booking")
	}
	ids := make([]string, 0, len(bs))
	seen := map[string]bool{}
	for _, b := range bs {
		if !seen[b.TourID] {
			seen[b.TourID] = true
			ids = append(ids, b.TourID)
		}
	}
	tours, err := s.tours.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, repoErr(err, "tour")
	}
	return bs, tours, nil
}

func (s *BookingService) List(ctx context.Context, q domain.BookingQuery) ([]domain.Booking, int64, error) {
	out, total, err := s.bookings.List(ctx, q)
	if err != nil {
		return nil, 0, repoErr(err, "booking")
	}
	return out, total, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	return b, repoErr(err, "booking")
}

func (s *BookingService) Create(ctx context.Context, in BookingInput) (*domain.Booking, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	b := &domain.Booking{
		ID:        utils.NewID(),
		TourID:    in.Tour,
		UserID:    in.User,
		Price:     in.Price,
		Paid:      in.Paid == nil || *in.Paid,
		CreatedAt: s.now(),
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, repoErr(err, "booking")
	}
	return b, nil
}

func (s *BookingService) Update(ctx context.Context, id string, p BookingPatch) (*domain.Booking, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "booking")
	}
	if p.Tour != nil {
		b.TourID = *p.Tour
	}
	if p.User != nil {
		b.UserID = *p.User
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Paid != nil {
		b.Paid = *p.Paid
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, repoErr(err, "booking")
	}
	return b, nil
}

func (s *BookingService) Delete(ctx context.Context, id string) error {
	return repoErr(s.bookings.Delete(ctx, id), "booking")
}
