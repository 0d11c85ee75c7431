package testutil

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tour-booking-api/internal/domain"
	"tour-booking-api/pkg/utils"
)

const Password = "pass1234"

// SeedUser 以 Password 作为明文密码直接入库（MinCost 以加快测试）
func SeedUser(t testing.TB, users domain.UserRepository, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := utils.HashPassword(Password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Name:         name,
		Email:        name + "@example.com",
		Photo:        "default.jpg",
		Role:         role,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedTour(t testing.TB, tours domain.TourRepository, name string, price float64) *domain.Tour {
	t.Helper()
	tr := &domain.Tour{
		ID:             utils.NewID(),
		Name:           name,
		Slug:           name,
		Duration:       5,
		MaxGroupSize:   10,
		Difficulty:     domain.DifficultyEasy,
		RatingsAverage: domain.DefaultRatingsAverage,
		Price:          price,
		Summary:        "A test tour",
		ImageCover:     "cover.jpg",
		CreatedAt:      time.Now(),
	}
	if err := tours.Create(context.Background(), tr); err != nil {
		t.Fatalf("seed tour: %v", err)
	}
	return tr
}
