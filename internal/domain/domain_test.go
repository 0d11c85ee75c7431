package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChangedPasswordAfter(t *testing.T) {
	iat := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	assert.False(t, u.ChangedPasswordAfter(iat), "never changed")

	sameSecond := iat.Add(900 * time.Millisecond)
	u.PasswordChangedAt = &sameSecond
	assert.False(t, u.ChangedPasswordAfter(iat), "same second is not later")

	later := iat.Add(2 * time.Second)
	u.PasswordChangedAt = &later
	assert.True(t, u.ChangedPasswordAfter(iat))

	earlier := iat.Add(-time.Second)
	u.PasswordChangedAt = &earlier
	assert.False(t, u.ChangedPasswordAfter(iat))
}

func TestHasValidResetToken(t *testing.T) {
	now := time.Now()
	h := "hash"
	exp := now.Add(time.Minute)
	u := &User{PasswordResetToken: &h, PasswordResetExpires: &exp}
	assert.True(t, u.HasValidResetToken(now))
	assert.False(t, u.HasValidResetToken(now.Add(2*time.Minute)))

	u.PasswordResetToken = nil
	assert.False(t, u.HasValidResetToken(now))
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.7, RoundRating(14.0/3))
	assert.Equal(t, 4.0, RoundRating(4))
	assert.Equal(t, 4.5, RoundRating(4.45))
}

func TestRoles(t *testing.T) {
	assert.True(t, RoleLeadGuide.Valid())
	assert.False(t, Role("root").Valid())
	assert.True(t, RoleAdmin.In(RoleUser, RoleAdmin))
	assert.False(t, RoleGuide.In(RoleUser, RoleAdmin))

	r, ok := ParseRole("lead-guide")
	assert.True(t, ok)
	assert.Equal(t, RoleLeadGuide, r)
	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestDurationWeeks(t *testing.T) {
	tour := &Tour{Duration: 14}
	assert.Equal(t, 2.0, tour.DurationWeeks())
}
