package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/auth"
	"tour-booking-api/internal/core/cache"
	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/core/database"
	"tour-booking-api/internal/core/payment"
	"tour-booking-api/internal/service"
	"tour-booking-api/internal/testutil"
	"tour-booking-api/internal/transport/http/handler"
	"tour-booking-api/internal/transport/http/router"
)

func TestNew_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{DB: config.DB{Driver: "oracle"}}
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.ErrorIs(t, err, database.ErrUnsupportedDriver)
	assert.Nil(t, a)
}

// 手工组装 App，检查两个 registry 挂出的路由
func TestRegistries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := zap.NewNop()
	users, tours, reviews := testutil.NewUsers(), testutil.NewTours(), testutil.NewReviews()
	c := cache.New("", "", 0)
	cfg := &config.Config{
		App: config.App{Name: "Natours", BaseURL: "http://localhost:8000"},
		JWT: config.JWT{CookieName: "jwt", CookieTTLHours: 1},
	}
	j := &auth.JWTer{Secret: []byte("s"), TTL: time.Hour}
	a := &App{Cfg: cfg, Log: l}
	a.Auth = service.NewAuthService(users, j, &testutil.Mailer{}, config.Auth{BcryptCost: 4, ResetTokenTTLMin: 10}, cfg.App, l)
	a.Users = service.NewUserService(users, l)
	a.Tours = service.NewTourService(tours, reviews, c, time.Minute, l)
	a.Reviews = service.NewReviewService(reviews, tours, service.NewRatingAggregator(reviews, tours, c, l))
	a.Bookings = service.NewBookingService(testutil.NewBookings(), tours, users, payment.Unconfigured{}, "", l)
	a.Guards = handler.NewGuards(a.Auth, "jwt", nil, l)

	api := router.NewAPIEngine(l, config.Limits{}, a.APIRegistry())
	admin := router.NewAdminEngine(l, config.Limits{}, a.Guards, a.AdminRegistry())

	routes := map[string]bool{}
	for _, r := range api.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/users/signup",
		"PATCH /api/v1/users/resetPassword/:token",
		"GET /api/v1/tours/:id/reviews",
		"GET /api/v1/bookings/checkout-session/:id",
		"POST /api/v1/bookings/webhook-checkout",
		"GET /metrics",
	} {
		assert.True(t, routes[want], want)
	}

	w := httptest.NewRecorder()
	admin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/v1/bookings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
