package service

import (
	"time"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/domain"
	"tour-booking-api/pkg/utils"
)

const (
	MinPasswordLength = 8
	// bcrypt 只处理前 72 字节，超长直接拒绝
	MaxPasswordLength = 72
)

// PasswordPolicy 所有改密路径（注册、改密、重置）都必须经过 apply
type PasswordPolicy struct {
	Cost int
	// Skew 非新建用户的 PasswordChangedAt = now - Skew，保证随后签发的令牌不被判定为过期
	Skew time.Duration
	Now  func() time.Time
}

// apply 校验并写入哈希；确认密码只参与比较，不会落到 u 上
func (p PasswordPolicy) apply(u *domain.User, password, confirm string, isNew bool) error {
	if password == "" || confirm == "" {
		return apperr.Validation("Please provide password and passwordConfirm")
	}
	if len(password) < MinPasswordLength {
		return apperr.Validation("Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return apperr.Validation("Password must be at most 72 bytes")
	}
	if password != confirm {
		return apperr.Validation("Passwords are not the same!")
	}
	hash, err := utils.HashPassword(password, p.Cost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	u.PasswordHash = hash
	if !isNew {
		changed := clockOrDefault(p.Now)().Add(-p.Skew)
		u.PasswordChangedAt = &changed
	}
	return nil
}
