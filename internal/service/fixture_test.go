package service

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"tour-booking-api/internal/core/auth"
	"tour-booking-api/internal/core/cache"
	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/testutil"
)

type fixture struct {
	users    *testutil.Users
	tours    *testutil.Tours
	reviews  *testutil.Reviews
	bookings *testutil.Bookings
	mail     *testutil.Mailer
	gateway  *testutil.Gateway
	clock    *testutil.Clock
	logs     *observer.ObservedLogs

	auth    *AuthService
	user    *UserService
	tour    *TourService
	review  *ReviewService
	booking *BookingService
	ratings *RatingAggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	f := &fixture{
		users:    testutil.NewUsers(),
		tours:    testutil.NewTours(),
		reviews:  testutil.NewReviews(),
		bookings: testutil.NewBookings(),
		mail:     &testutil.Mailer{},
		gateway:  &testutil.Gateway{},
		clock:    testutil.NewClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
		logs:     logs,
	}
	j := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	f.auth = NewAuthService(f.users, j, f.mail,
		config.Auth{BcryptCost: bcrypt.MinCost, ResetTokenTTLMin: 10, PasswordChangeSkewSec: 1},
		config.App{Name: "Natours", BaseURL: "http://localhost:8000"},
		log,
	)
	f.auth.SetClock(f.clock.Now)

	c := cache.New("", "", 0)
	f.ratings = NewRatingAggregator(f.reviews, f.tours, c, log)
	f.user = NewUserService(f.users, log)
	f.tour = NewTourService(f.tours, f.reviews, c, time.Minute, log)
	f.review = NewReviewService(f.reviews, f.tours, f.ratings)
	f.booking = NewBookingService(f.bookings, f.tours, f.users, f.gateway, "https://img.example.com/tours", log)
	t.Cleanup(f.auth.Wait)
	return f
}
