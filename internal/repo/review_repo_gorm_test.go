package repo

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/domain"
)

func seedTour(t *testing.T, r *TourRepo, name string) *domain.Tour {
	t.Helper()
	tour := &domain.Tour{
		ID:           uuid.NewString(),
		Name:         name,
		Slug:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domain.DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike",
		ImageCover:   "cover.jpg",
	}
	require.NoError(t, r.Create(ctx, tour))
	return tour
}

func TestReviewRepo_OnePerUserAndTour(t *testing.T) {
	db := openSQLite(t)
	reviews := NewReviewRepo(db)
	a := seedTour(t, NewTourRepo(db), "forest-hiker")
	b := seedTour(t, NewTourRepo(db), "sea-explorer")

	require.NoError(t, reviews.Create(ctx, &domain.Review{ID: uuid.NewString(), Text: "great", Rating: 5, TourID: a.ID, UserID: "u1"}))
	err := reviews.Create(ctx, &domain.Review{ID: uuid.NewString(), Text: "again", Rating: 1, TourID: a.ID, UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// 同一用户评另一个 tour 不冲突
	require.NoError(t, reviews.Create(ctx, &domain.Review{ID: uuid.NewString(), Text: "fine", Rating: 3, TourID: b.ID, UserID: "u1"}))

	_, total, err := reviews.List(ctx, domain.ReviewQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestReviewRepo_RatingStats(t *testing.T) {
	db := openSQLite(t)
	reviews := NewReviewRepo(db)
	tour := seedTour(t, NewTourRepo(db), "snow-adventurer")

	st, err := reviews.RatingStats(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingStats{}, st)

	var ids []string
	for i, rating := range []int{4, 5, 3} {
		rv := &domain.Review{ID: uuid.NewString(), Text: "ok", Rating: rating, TourID: tour.ID, UserID: []string{"u1", "u2", "u3"}[i]}
		require.NoError(t, reviews.Create(ctx, rv))
		ids = append(ids, rv.ID)
	}
	// 其它 tour 的评论不计入
	require.NoError(t, reviews.Create(ctx, &domain.Review{ID: uuid.NewString(), Text: "meh", Rating: 1, TourID: "other", UserID: "u1"}))

	st, err = reviews.RatingStats(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingStats{Count: 3, Average: 4}, st)

	require.NoError(t, reviews.Update(ctx, ids[2], "better", 5))
	st, err = reviews.RatingStats(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Count)
	assert.InDelta(t, 4.6667, st.Average, 0.001)

	require.NoError(t, reviews.Delete(ctx, ids[0]))
	assert.ErrorIs(t, reviews.Delete(ctx, ids[0]), domain.ErrNotFound)
	require.NoError(t, reviews.DeleteByTour(ctx, tour.ID))

	st, err = reviews.RatingStats(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingStats{Count: 0, Average: 0}, st)
}

func TestTourRepo_UpdateKeepsRatings(t *testing.T) {
	tours := NewTourRepo(openSQLite(t))
	tour := seedTour(t, tours, "city-wanderer")

	got, err := tours.FindByID(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRatingsAverage, got.RatingsAverage)
	assert.Equal(t, 0, got.RatingsQuantity)

	require.NoError(t, tours.UpdateRatings(ctx, tour.ID, 4.7, 3))

	got.Price = 499
	got.Summary = "Now with a night in the park"
	got.RatingsAverage = 1
	got.RatingsQuantity = 99
	require.NoError(t, tours.Update(ctx, got))

	got, err = tours.FindByID(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 499.0, got.Price)
	assert.Equal(t, "Now with a night in the park", got.Summary)
	assert.Equal(t, 4.7, got.RatingsAverage)
	assert.Equal(t, 3, got.RatingsQuantity)

	assert.ErrorIs(t, tours.UpdateRatings(ctx, "missing", 4, 1), domain.ErrNotFound)
}

func TestTourRepo_SecretHidden(t *testing.T) {
	tours := NewTourRepo(openSQLite(t))
	tour := seedTour(t, tours, "hidden-gem")
	seedTour(t, tours, "open-trail")

	tour.Secret = true
	require.NoError(t, tours.Update(ctx, tour))

	_, err := tours.FindByID(ctx, tour.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, total, err := tours.List(ctx, domain.TourQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	err = tours.Create(ctx, &domain.Tour{ID: uuid.NewString(), Name: "open-trail", Duration: 1, MaxGroupSize: 1,
		Difficulty: domain.DifficultyEasy, Price: 1, Summary: "s", ImageCover: "c"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestBookingRepo_SessionIDUnique(t *testing.T) {
	bookings := NewBookingRepo(openSQLite(t))
	session := "cs_test_1"

	require.NoError(t, bookings.Create(ctx, &domain.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10, Paid: true, SessionID: &session}))
	err := bookings.Create(ctx, &domain.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10, Paid: true, SessionID: &session})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// 后台手工创建的没有会话 id，互不冲突
	require.NoError(t, bookings.Create(ctx, &domain.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10}))
	require.NoError(t, bookings.Create(ctx, &domain.Booking{ID: uuid.NewString(), TourID: "t", UserID: "u", Price: 10}))

	_, total, err := bookings.List(ctx, domain.BookingQuery{TourID: "t"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}
