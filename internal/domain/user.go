package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

var AllRoles = []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

func (r Role) Valid() bool {
	for _, v := range AllRoles {
		if r == v {
			return true
		}
	}
	return false
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

func (r Role) In(roles ...Role) bool {
	for _, v := range roles {
		if r == v {
			return true
		}
	}
	return false
}

// User 密码哈希与重置字段永不序列化
type User struct {
	ID                   string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name                 string     `gorm:"size:64;not null" bson:"name" json:"name"`
	Email                string     `gorm:"uniqueIndex;size:191;not null" bson:"email" json:"email"`
	Photo                string     `gorm:"size:255;default:default.jpg" bson:"photo" json:"photo"`
	Role                 Role       `gorm:"size:16;not null;default:user" bson:"role" json:"role"`
	PasswordHash         string     `gorm:"size:100;not null" bson:"password_hash,omitempty" json:"-"`
	PasswordChangedAt    *time.Time `bson:"password_changed_at,omitempty" json:"-"`
	PasswordResetToken   *string    `gorm:"size:64;index" bson:"password_reset_token,omitempty" json:"-"`
	PasswordResetExpires *time.Time `bson:"password_reset_expires,omitempty" json:"-"`
	Active               bool       `gorm:"not null;default:true;index" bson:"active" json:"-"`
	CreatedAt            time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `bson:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// ChangedPasswordAfter 按秒比较（JWT iat 精度为秒）
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

func (u *User) HasValidResetToken(now time.Time) bool {
	return u.PasswordResetToken != nil && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
}

// ProfileUpdate nil 字段不更新
type ProfileUpdate struct {
	Name  *string
	Email *string
	Role  *Role
	Photo *string
}

type UserQuery struct {
	Q            string
	Offset       int
	Limit        int
	WithInactive bool
}

// UserRepository 默认读取只返回 active 用户且不带密码哈希；
// FindCredentials* 额外带上哈希，仅供登录/改密使用。
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindCredentialsByID(ctx context.Context, id string) (*User, error)
	FindCredentialsByEmail(ctx context.Context, email string) (*User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken 原子地校验 token 仍有效、写入新密码并清空 token；
	// token 已被用过或已过期时返回 ErrNotFound
	ConsumeResetToken(ctx context.Context, id, tokenHash string, now time.Time, passwordHash string, changedAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q UserQuery) ([]User, int64, error)
}
