package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired 签名正确但已过期
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid 签名错误、格式错误、算法不符
	ErrTokenInvalid = errors.New("token invalid")
)

type Claims struct {
	UID string `json:"id"`
	jwt.RegisteredClaims
}

// Identity 验签后的结果
type Identity struct {
	UserID   string
	IssuedAt time.Time
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
	// Now 可注入时钟（测试用），nil 表示 time.Now
	Now func() time.Time
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Issue 签发只绑定用户 id 的令牌；角色不进令牌，每次请求从库里取
func (j *JWTer) Issue(uid string) (string, error) {
	if uid == "" {
		return "", fmt.Errorf("issue token: empty uid")
	}
	now := j.now()
	claims := Claims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTer) Verify(tokenStr string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	if j.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(j.Leeway))
	}

	// 算法由 WithValidMethods 限定为 HS256
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) { return j.Secret, nil }, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UID == "" || c.IssuedAt == nil {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: c.UID, IssuedAt: c.IssuedAt.Time}, nil
}
