package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tour-booking-api/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

// public 默认视图：仅 active，且不取密码哈希
func (r *UserRepo) public(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Omit("password_hash").Where("active = ?", true)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.public(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.public(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) FindCredentialsByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&u, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) FindCredentialsByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&u, "email = ?", email).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.public(ctx).
		Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, now).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expires,
	})
	return affected(r.db.WithContext(ctx), res, &domain.User{}, id)
}

func (r *UserRepo) ClearResetToken(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
	return affected(r.db.WithContext(ctx), res, &domain.User{}, id)
}

func (r *UserRepo) ConsumeResetToken(ctx context.Context, id, tokenHash string, now time.Time, passwordHash string, changedAt time.Time) error {
	// 条件更新：并发的两次重置只有一次能命中
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND active = ? AND password_reset_token = ? AND password_reset_expires > ?", id, true, tokenHash, now).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"password_changed_at":    changedAt,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":       passwordHash,
		"password_changed_at": changedAt,
	})
	return affected(r.db.WithContext(ctx), res, &domain.User{}, id)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) error {
	set := map[string]any{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	if p.Photo != nil {
		set["photo"] = *p.Photo
	}
	if len(set) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(set)
	return affected(r.db.WithContext(ctx), res, &domain.User{}, id)
}

func (r *UserRepo) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("active", false)
	return affected(r.db.WithContext(ctx), res, &domain.User{}, id)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).Omit("password_hash")
	if !q.WithInactive {
		tx = tx.Where("active = ?", true)
	}
	if q.Q != "" {
		like := "%" + q.Q + "%"
		tx = tx.Where("(name LIKE ? OR email LIKE ?)", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(q.Offset, q.Limit)
	var users []domain.User
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
