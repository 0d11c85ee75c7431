package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/core/auth"
	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/core/mailer"
	"tour-booking-api/internal/domain"
	"tour-booking-api/pkg/utils"
)

var (
	// ErrStaleToken 令牌签发后用户改过密码
	ErrStaleToken = errors.New("token issued before last password change")
	// ErrResetTokenInvalid 重置令牌不存在、已过期或已被使用
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)

const mailTimeout = 20 * time.Second

type SignupInput struct {
	Name            string `json:"name" validate:"required,max=64"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService struct {
	users    domain.UserRepository
	jwt      *auth.JWTer
	mail     mailer.Mailer
	log      *zap.Logger
	policy   PasswordPolicy
	resetTTL time.Duration
	siteName string
	baseURL  string
	now      func() time.Time

	// 未知邮箱也要跑一次 bcrypt，登录耗时不暴露账号是否存在
	checkPw   func(pw, hash string) bool
	decoyOnce sync.Once
	decoyHash string

	bg sync.WaitGroup
}

func NewAuthService(users domain.UserRepository, j *auth.JWTer, m mailer.Mailer, ac config.Auth, app config.App, log *zap.Logger) *AuthService {
	s := &AuthService{
		users:    users,
		jwt:      j,
		mail:     m,
		log:      log,
		resetTTL: time.Duration(ac.ResetTokenTTLMin) * time.Minute,
		siteName: app.Name,
		baseURL:  strings.TrimRight(app.BaseURL, "/"),
		now:      time.Now,
		checkPw:  utils.CheckPassword,
	}
	s.policy = PasswordPolicy{
		Cost: ac.BcryptCost,
		Skew: time.Duration(ac.PasswordChangeSkewSec) * time.Second,
		Now:  func() time.Time { return s.now() },
	}
	return s
}

// SetClock 同时替换令牌签发使用的时钟
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
	s.jwt.Now = now
}

// Wait 等待后台邮件发送结束（优雅退出用）
func (s *AuthService) Wait() { s.bg.Wait() }

func (s *AuthService) issue(u *domain.User) (*AuthResult, error) {
	tok, err := s.jwt.Issue(u.ID)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	u.PasswordHash = ""
	return &AuthResult{Token: tok, User: u}, nil
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := s.now()
	u := &domain.User{
		ID:        utils.NewID(),
		Name:      in.Name,
		Email:     in.Email,
		Photo:     "default.jpg",
		Role:      domain.RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.policy.apply(u, in.Password, in.PasswordConfirm, true); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, "Email already in use. Please use another value!", err)
		}
		return nil, repoErr(err, "user")
	}

	msg := mailer.BuildWelcome(u.Email, mailer.WelcomeData{
		SiteName:  s.siteName,
		FirstName: firstName(u.Name),
		URL:       s.baseURL + "/me",
	})
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
		defer cancel()
		if err := s.mail.Send(mctx, msg); err != nil {
			s.log.Warn("welcome email failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	}()

	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Please provide email and password!")
	}
	u, err := s.users.FindCredentialsByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, repoErr(err, "user")
	}
	hash := s.decoy()
	if u != nil {
		hash = u.PasswordHash
	}
	if ok := s.checkPw(password, hash); !ok || u == nil {
		return nil, apperr.Unauthenticated("Incorrect email or password")
	}
	return s.issue(u)
}

// decoy 与真实哈希同 cost 的占位哈希
func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		h, err := utils.HashPassword(utils.NewID(), s.policy.Cost)
		if err != nil {
			s.log.Warn("decoy hash", zap.Error(err))
			return
		}
		s.decoyHash = h
	})
	return s.decoyHash
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID, current, password, confirm string) (*AuthResult, error) {
	u, err := s.users.FindCredentialsByID(ctx, userID)
	if err != nil {
		return nil, repoErr(err, "user")
	}
	if !utils.CheckPassword(current, u.PasswordHash) {
		return nil, apperr.Unauthenticated("Your current password is wrong.")
	}
	if err := s.policy.apply(u, password, confirm, false); err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, u.PasswordHash, *u.PasswordChangedAt); err != nil {
		return nil, repoErr(err, "user")
	}
	return s.issue(u)
}

// Authenticate 验签 -> 取用户 -> 新鲜度检查
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.jwt.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindAuthentication, "Your token has expired! Please log in again.", err)
		}
		return nil, apperr.Wrap(apperr.KindAuthentication, "Invalid token. Please log in again!", err)
	}
	u, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindAuthentication, "The user belonging to this token no longer exists.", err)
		}
		return nil, repoErr(err, "user")
	}
	if u.ChangedPasswordAfter(id.IssuedAt) {
		return nil, apperr.Wrap(apperr.KindAuthentication, "User recently changed password! Please log in again.", ErrStaleToken)
	}
	return u, nil
}

// RequestReset 生成一次性令牌并发邮件；邮件失败时回滚令牌并返回 Delivery 错误。
// linkBase 是不含令牌的重置地址前缀。
func (s *AuthService) RequestReset(ctx context.Context, email, linkBase string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperr.Validation("Please provide your email address")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperr.Wrap(apperr.KindNotFound, "There is no user with that email address.", err)
		}
		return repoErr(err, "user")
	}

	raw, hashed, err := utils.NewResetToken()
	if err != nil {
		return apperr.Internal("generate reset token", err)
	}
	if err := s.users.SetResetToken(ctx, u.ID, hashed, s.now().Add(s.resetTTL)); err != nil {
		return repoErr(err, "user")
	}

	if linkBase == "" {
		linkBase = s.baseURL + "/api/v1/users/resetPassword"
	}
	msg := mailer.BuildPasswordReset(u.Email, mailer.PasswordResetData{
		SiteName:  s.siteName,
		FirstName: firstName(u.Name),
		ResetURL:  strings.TrimRight(linkBase, "/") + "/" + raw,
		ExpiresIn: humanMinutes(s.resetTTL),
	})
	if err := s.mail.Send(ctx, msg); err != nil {
		// 回滚不受请求取消影响
		if cerr := s.users.ClearResetToken(context.WithoutCancel(ctx), u.ID); cerr != nil {
			s.log.Error("reset token rollback failed", zap.String("user_id", u.ID), zap.Error(cerr))
		}
		return apperr.Delivery("There was an error sending the email. Try again later!", err)
	}
	return nil
}

// CompleteReset 令牌只能成功使用一次；成功后签发新令牌
func (s *AuthService) CompleteReset(ctx context.Context, raw, password, confirm string) (*AuthResult, error) {
	invalid := apperr.Wrap(apperr.KindValidation, "Token is invalid or has expired", ErrResetTokenInvalid)
	if raw == "" {
		return nil, invalid
	}
	hashed := utils.HashResetToken(raw)
	now := s.now()
	u, err := s.users.FindByResetToken(ctx, hashed, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalid
		}
		return nil, repoErr(err, "user")
	}
	if err := s.policy.apply(u, password, confirm, false); err != nil {
		return nil, err
	}
	if err := s.users.ConsumeResetToken(ctx, u.ID, hashed, now, u.PasswordHash, *u.PasswordChangedAt); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalid
		}
		return nil, repoErr(err, "user")
	}
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return s.issue(u)
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}

func humanMinutes(d time.Duration) string {
	m := int(d.Minutes())
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
