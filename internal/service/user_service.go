package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/domain"
)

type UpdateMeInput struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=64"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

type AdminUserUpdate struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=64"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
}

type UserService struct {
	users domain.UserRepository
	log   *zap.Logger
}

func NewUserService(users domain.UserRepository, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log}
}

func (s *UserService) Me(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	return u, repoErr(err, "user")
}

// UpdateMe 只允许改 name / email，改密走 updateMyPassword
func (s *UserService) UpdateMe(ctx context.Context, id string, in UpdateMeInput) (*domain.User, error) {
	if in.Password != nil || in.PasswordConfirm != nil {
		return nil, apperr.Validation("This route is not for password updates. Please use /updateMyPassword.")
	}
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, id, domain.ProfileUpdate{Name: in.Name, Email: in.Email}); err != nil {
		return nil, repoErr(err, "user")
	}
	return s.Me(ctx, id)
}

// DeleteMe 软删除，之后该用户的令牌在 Resolve 阶段失效
func (s *UserService) DeleteMe(ctx context.Context, id string) error {
	return repoErr(s.users.Deactivate(ctx, id), "user")
}

func (s *UserService) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, 0, repoErr(err, "user")
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.Me(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id string, in AdminUserUpdate) (*domain.User, error) {
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p := domain.ProfileUpdate{Name: in.Name, Email: in.Email}
	if in.Role != nil {
		r, _ := domain.ParseRole(*in.Role)
		p.Role = &r
	}
	if err := s.users.UpdateProfile(ctx, id, p); err != nil {
		return nil, repoErr(err, "user")
	}
	s.log.Info("user updated by admin", zap.String("user_id", id))
	return s.Get(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return repoErr(s.users.Delete(ctx, id), "user")
}

func (s *UserService) Ban(ctx context.Context, id string) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		return repoErr(err, "user")
	}
	s.log.Info("user banned", zap.String("user_id", id))
	return nil
}
