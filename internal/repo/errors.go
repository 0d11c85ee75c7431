package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"tour-booking-api/internal/domain"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// translate 把驱动错误收敛成 domain 哨兵
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case isDupKey(err):
		return domain.ErrDuplicate
	}
	return err
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	// mysql 1062 / postgres 23505
	return strings.Contains(s, "duplicate") || strings.Contains(s, "23505") || strings.Contains(s, "unique constraint")
}

func page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

// affected Updates/Delete 未命中任何行时区分"不存在"和"值未变"（mysql 不计未变更行）
func affected(db *gorm.DB, res *gorm.DB, model any, id string) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
