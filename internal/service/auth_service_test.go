package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/core/auth"
	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/testutil"
	"tour-booking-api/pkg/utils"
)

var ctx = context.Background()

func signup(t *testing.T, f *fixture, name string) *AuthResult {
	t.Helper()
	res, err := f.auth.Signup(ctx, SignupInput{
		Name:            name + " Tester",
		Email:           "  " + name + "@Example.com ",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})
	require.NoError(t, err)
	return res
}

func TestSignupStoresOnlyHash(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f, "jonas")

	assert.NotEmpty(t, res.Token)
	assert.Empty(t, res.User.PasswordHash, "returned user never carries the hash")
	assert.Equal(t, domain.RoleUser, res.User.Role)

	raw, ok := f.users.Raw(res.User.ID)
	require.True(t, ok)
	assert.Equal(t, "jonas@example.com", raw.Email)
	assert.NotEqual(t, "pass1234", raw.PasswordHash)
	assert.True(t, utils.CheckPassword("pass1234", raw.PasswordHash))
	assert.Nil(t, raw.PasswordChangedAt, "new users have no change timestamp")

	f.auth.Wait()
	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jonas@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Welcome")
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]SignupInput{
		"mismatch":  {Name: "A", Email: "a@b.co", Password: "pass1234", PasswordConfirm: "pass12345"},
		"too short": {Name: "A", Email: "a@b.co", Password: "short", PasswordConfirm: "short"},
		"bad email": {Name: "A", Email: "not-an-email", Password: "pass1234", PasswordConfirm: "pass1234"},
		"no name":   {Email: "a@b.co", Password: "pass1234", PasswordConfirm: "pass1234"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Signup(ctx, in)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "jonas")
	_, err := f.auth.Signup(ctx, SignupInput{Name: "Other", Email: "JONAS@example.com", Password: "pass1234", PasswordConfirm: "pass1234"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestSignupWelcomeFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mail.Err = errors.New("smtp down")
	res := signup(t, f, "jonas")
	assert.NotEmpty(t, res.Token)
	f.auth.Wait()
	assert.Equal(t, 1, f.logs.FilterMessage("welcome email failed").Len())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "jonas")

	res, err := f.auth.Login(ctx, "JONAS@example.com", "pass1234")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Empty(t, res.User.PasswordHash)

	_, err = f.auth.Login(ctx, "jonas@example.com", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
	assert.EqualError(t, err, "Incorrect email or password")

	_, err = f.auth.Login(ctx, "nobody@example.com", "pass1234")
	assert.EqualError(t, err, "Incorrect email or password")

	_, err = f.auth.Login(ctx, "", "pass1234")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLoginUnknownEmailStillComparesHash(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "jonas")

	var hashes []string
	f.auth.checkPw = func(pw, hash string) bool {
		hashes = append(hashes, hash)
		return utils.CheckPassword(pw, hash)
	}

	_, err := f.auth.Login(ctx, "nobody@example.com", "pass1234")
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
	_, err = f.auth.Login(ctx, "jonas@example.com", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))

	require.Len(t, hashes, 2)
	assert.True(t, strings.HasPrefix(hashes[0], "$2a$"), "unknown email should hit bcrypt with a placeholder hash")
	assert.NotEqual(t, hashes[0], hashes[1])
}

func TestLoginInactiveUser(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f, "jonas")
	require.NoError(t, f.user.DeleteMe(ctx, res.User.ID))

	_, err := f.auth.Login(ctx, "jonas@example.com", "pass1234")
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}

func TestAuthenticateStaleAfterPasswordChange(t *testing.T) {
	f := newFixture(t)
	first := signup(t, f, "jonas")

	u, err := f.auth.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, u.ID)

	f.clock.Advance(2 * time.Second)
	second, err := f.auth.UpdatePassword(ctx, first.User.ID, "pass1234", "newpass123", "newpass123")
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, first.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
	assert.ErrorIs(t, err, ErrStaleToken)

	// 刚签发的令牌不受 skew 影响
	u, err = f.auth.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, u.ID)

	raw, _ := f.users.Raw(first.User.ID)
	require.NotNil(t, raw.PasswordChangedAt)
	assert.Equal(t, f.clock.Now().Add(-time.Second), *raw.PasswordChangedAt)
}

func TestUpdatePasswordWrongCurrent(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f, "jonas")
	_, err := f.auth.UpdatePassword(ctx, res.User.ID, "nope-nope", "newpass123", "newpass123")
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}

func TestAuthenticateFailures(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f, "jonas")

	_, err := f.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	assert.EqualError(t, err, "Invalid token. Please log in again!")

	f.clock.Advance(2 * time.Hour)
	_, err = f.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}

func TestAuthenticateDeactivatedUser(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f, "jonas")
	require.NoError(t, f.user.DeleteMe(ctx, res.User.ID))

	_, err := f.auth.Authenticate(ctx, res.Token)
	assert.EqualError(t, err, "The user belonging to this token no longer exists.")
}

var resetLink = regexp.MustCompile(`resetPassword/([0-9a-f]{64})`)

func requestReset(t *testing.T, f *fixture, email string) string {
	t.Helper()
	require.NoError(t, f.auth.RequestReset(ctx, email, ""))
	sent := f.mail.Sent()
	require.NotEmpty(t, sent)
	m := resetLink.FindStringSubmatch(sent[len(sent)-1].TextBody)
	require.Len(t, m, 2)
	return m[1]
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f, "jonas")
	f.auth.Wait()

	raw := requestReset(t, f, "jonas@example.com")
	stored, _ := f.users.Raw(res.User.ID)
	require.NotNil(t, stored.PasswordResetToken)
	assert.NotEqual(t, raw, *stored.PasswordResetToken, "only the digest is stored")
	assert.Equal(t, utils.HashResetToken(raw), *stored.PasswordResetToken)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), *stored.PasswordResetExpires)

	f.clock.Advance(2 * time.Second)
	done, err := f.auth.CompleteReset(ctx, raw, "brandnew123", "brandnew123")
	require.NoError(t, err)
	assert.NotEmpty(t, done.Token)

	stored, _ = f.users.Raw(res.User.ID)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)

	_, err = f.auth.Login(ctx, "jonas@example.com", "brandnew123")
	require.NoError(t, err)

	// 旧令牌失效，新令牌可用
	_, err = f.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrStaleToken)
	_, err = f.auth.Authenticate(ctx, done.Token)
	assert.NoError(t, err)

	// 单次使用
	_, err = f.auth.CompleteReset(ctx, raw, "another123", "another123")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestPasswordResetExpires(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "jonas")
	f.auth.Wait()
	raw := requestReset(t, f, "jonas@example.com")

	f.clock.Advance(10*time.Minute + time.Second)
	_, err := f.auth.CompleteReset(ctx, raw, "brandnew123", "brandnew123")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
	assert.EqualError(t, err, "Token is invalid or has expired")
}

func TestPasswordResetRollbackOnDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f, "jonas")
	f.auth.Wait()
	f.mail.Err = errors.New("smtp down")

	err := f.auth.RequestReset(ctx, "jonas@example.com", "")
	assert.True(t, apperr.Is(err, apperr.KindDelivery))

	stored, _ := f.users.Raw(res.User.ID)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newFixture(t)
	err := f.auth.RequestReset(ctx, "ghost@example.com", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Zero(t, f.mail.Count())
}

func TestPasswordResetBadInput(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "jonas")
	f.auth.Wait()
	raw := requestReset(t, f, "jonas@example.com")

	_, err := f.auth.CompleteReset(ctx, raw, "brandnew123", "mismatch123")
	assert.EqualError(t, err, "Passwords are not the same!")

	// 校验失败不消耗令牌
	_, err = f.auth.CompleteReset(ctx, raw, "brandnew123", "brandnew123")
	assert.NoError(t, err)
}

func TestPasswordResetConcurrentUseSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "jonas")
	f.auth.Wait()
	raw := requestReset(t, f, "jonas@example.com")

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.auth.CompleteReset(ctx, raw, "brandnew123", "brandnew123"); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
}

func TestPasswordPolicy(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	p := PasswordPolicy{Cost: 4, Skew: time.Second, Now: func() time.Time { return now }}

	u := &domain.User{}
	require.NoError(t, p.apply(u, "pass1234", "pass1234", true))
	assert.Nil(t, u.PasswordChangedAt)

	require.NoError(t, p.apply(u, "pass5678", "pass5678", false))
	require.NotNil(t, u.PasswordChangedAt)
	assert.Equal(t, now.Add(-time.Second), *u.PasswordChangedAt)

	long := string(make([]byte, 80))
	assert.Error(t, p.apply(u, long, long, false))
	assert.Error(t, p.apply(u, "", "", false))
}

func TestSeededUserCanLogin(t *testing.T) {
	f := newFixture(t)
	u := testutil.SeedUser(t, f.users, "guide", domain.RoleGuide)
	res, err := f.auth.Login(ctx, u.Email, testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuide, res.User.Role)
}
