package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/core/payment"
	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/testutil"
)

func TestCheckoutSession(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "the-forest-hiker", 397)
	u := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)

	sess, err := f.booking.CheckoutSession(ctx, u, tour.ID, "https://tours.example.com/")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.URL)

	require.Len(t, f.gateway.Requests, 1)
	req := f.gateway.Requests[0]
	assert.Equal(t, tour.ID, req.TourID)
	assert.Equal(t, u.Email, req.CustomerEmail)
	assert.Equal(t, 397.0, req.Price)
	assert.Equal(t, "https://tours.example.com/tour/the-forest-hiker", req.CancelURL)
	assert.Equal(t, "https://img.example.com/tours/cover.jpg", req.ImageURL)

	_, err = f.booking.CheckoutSession(ctx, u, "nope", "https://tours.example.com")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestWebhookCreatesBooking(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Sea Explorer", 497)
	u := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)
	f.gateway.Completed = &payment.CompletedCheckout{TourID: tour.ID, CustomerEmail: u.Email, Amount: 497}

	err := f.booking.HandleWebhook(ctx, []byte(`{}`), "bad")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.ErrorIs(t, err, payment.ErrBadSignature)

	require.NoError(t, f.booking.HandleWebhook(ctx, []byte(`{}`), testutil.ValidSignature))

	bookings, tours, err := f.booking.MyBookings(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, 497.0, bookings[0].Price)
	assert.True(t, bookings[0].Paid)
	require.Len(t, tours, 1)
	assert.Equal(t, tour.ID, tours[0].ID)
}

func TestWebhookRedeliveryBooksOnce(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Snow Adventurer", 997)
	u := testutil.SeedUser(t, f.users, "ben", domain.RoleUser)
	f.gateway.Completed = &payment.CompletedCheckout{SessionID: "cs_test_42", TourID: tour.ID, CustomerEmail: u.Email, Amount: 997}

	for i := 0; i < 3; i++ {
		require.NoError(t, f.booking.HandleWebhook(ctx, []byte(`{}`), testutil.ValidSignature))
	}
	_, total, err := f.booking.List(ctx, domain.BookingQuery{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// 不同会话是另一笔预订
	f.gateway.Completed = &payment.CompletedCheckout{SessionID: "cs_test_43", TourID: tour.ID, CustomerEmail: u.Email, Amount: 997}
	require.NoError(t, f.booking.HandleWebhook(ctx, []byte(`{}`), testutil.ValidSignature))
	_, total, err = f.booking.List(ctx, domain.BookingQuery{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.booking.HandleWebhook(ctx, []byte(`{}`), testutil.ValidSignature))
	_, total, err := f.booking.List(ctx, domain.BookingQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAdminBookingCRUD(t *testing.T) {
	f := newFixture(t)
	unpaid := false
	b, err := f.booking.Create(ctx, BookingInput{Tour: "t1", User: "u1", Price: 100, Paid: &unpaid})
	require.NoError(t, err)
	assert.False(t, b.Paid)

	paid := true
	got, err := f.booking.Update(ctx, b.ID, BookingPatch{Paid: &paid})
	require.NoError(t, err)
	assert.True(t, got.Paid)

	require.NoError(t, f.booking.Delete(ctx, b.ID))
	_, err = f.booking.Get(ctx, b.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.booking.Create(ctx, BookingInput{Tour: "t1"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
