package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/testutil"
)

func ratingsOf(t *testing.T, f *fixture, tourID string) (float64, int) {
	t.Helper()
	tr, ok := f.tours.Raw(tourID)
	require.True(t, ok)
	return tr.RatingsAverage, tr.RatingsQuantity
}

func TestRatingAggregateFollowsReviewWrites(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Forest Hiker", 397)

	var ids []string
	for i, rating := range []int{4, 5, 3} {
		u := testutil.SeedUser(t, f.users, []string{"ann", "bob", "cid"}[i], domain.RoleUser)
		r, err := f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "Lovely trip", Rating: rating})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	avg, qty := ratingsOf(t, f, tour.ID)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 3, qty)

	admin := testutil.SeedUser(t, f.users, "root", domain.RoleAdmin)
	require.NoError(t, f.review.Delete(ctx, admin, ids[2]))
	avg, qty = ratingsOf(t, f, tour.ID)
	assert.Equal(t, 4.5, avg)
	assert.Equal(t, 2, qty)

	require.NoError(t, f.review.Delete(ctx, admin, ids[0]))
	require.NoError(t, f.review.Delete(ctx, admin, ids[1]))
	avg, qty = ratingsOf(t, f, tour.ID)
	assert.Equal(t, domain.DefaultRatingsAverage, avg)
	assert.Equal(t, 0, qty)
}

func TestRatingAggregateRoundsToOneDecimal(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Sea Explorer", 497)
	for i, rating := range []int{5, 5, 4} {
		u := testutil.SeedUser(t, f.users, []string{"ann", "bob", "cid"}[i], domain.RoleUser)
		_, err := f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "Nice", Rating: rating})
		require.NoError(t, err)
	}
	avg, qty := ratingsOf(t, f, tour.ID)
	assert.Equal(t, 4.7, avg)
	assert.Equal(t, 3, qty)
}

func TestReviewUpdateRecomputes(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Snow Adventurer", 997)
	u := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)
	r, err := f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "Cold", Rating: 2})
	require.NoError(t, err)

	five := 5
	got, err := f.review.Update(ctx, u, r.ID, ReviewPatch{Rating: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, "Cold", got.Text)

	avg, qty := ratingsOf(t, f, tour.ID)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, qty)
}

func TestDuplicateReviewConflicts(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The City Wanderer", 1197)
	u := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)

	_, err := f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "Great", Rating: 5})
	require.NoError(t, err)
	_, err = f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "Again", Rating: 1})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	avg, qty := ratingsOf(t, f, tour.ID)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, qty)
}

func TestReviewOwnership(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Park Camper", 1497)
	owner := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)
	other := testutil.SeedUser(t, f.users, "bob", domain.RoleUser)
	admin := testutil.SeedUser(t, f.users, "root", domain.RoleAdmin)

	r, err := f.review.Create(ctx, owner, tour.ID, ReviewInput{Review: "Fine", Rating: 3})
	require.NoError(t, err)

	text := "Hijacked"
	_, err = f.review.Update(ctx, other, r.ID, ReviewPatch{Review: &text})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.True(t, apperr.Is(f.review.Delete(ctx, other, r.ID), apperr.KindAuthorization))

	text = "Moderated"
	got, err := f.review.Update(ctx, admin, r.ID, ReviewPatch{Review: &text})
	require.NoError(t, err)
	assert.Equal(t, "Moderated", got.Text)
}

func TestReviewTextIsSanitized(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Wine Taster", 1997)
	u := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)

	r, err := f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "<b>Great</b> tour", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, "Great tour", r.Text)

	u2 := testutil.SeedUser(t, f.users, "bob", domain.RoleUser)
	_, err = f.review.Create(ctx, u2, tour.ID, ReviewInput{Review: "<script>alert(1)</script>", Rating: 5})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestReviewValidation(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Star Gazer", 2997)
	u := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)

	_, err := f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "ok", Rating: 6})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = f.review.Create(ctx, u, "missing-tour", ReviewInput{Review: "ok", Rating: 4})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRatingFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	tour := testutil.SeedTour(t, f.tours, "The Northern Lights", 1497)
	u := testutil.SeedUser(t, f.users, "ann", domain.RoleUser)
	f.tours.FailRatings = errors.New("db timeout")

	_, err := f.review.Create(ctx, u, tour.ID, ReviewInput{Review: "Wow", Rating: 1})
	require.NoError(t, err)

	avg, qty := ratingsOf(t, f, tour.ID)
	assert.Equal(t, domain.DefaultRatingsAverage, avg, "aggregate stays stale")
	assert.Equal(t, 0, qty)
	assert.Equal(t, 1, f.logs.FilterMessage("rating recompute failed").Len())

	// 下一次成功的写入会修正
	f.tours.FailRatings = nil
	f.ratings.Recompute(ctx, tour.ID)
	avg, qty = ratingsOf(t, f, tour.ID)
	assert.Equal(t, 1.0, avg)
	assert.Equal(t, 1, qty)
}
