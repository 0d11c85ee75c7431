package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/core/auth"
	"tour-booking-api/internal/domain"
	resp "tour-booking-api/internal/transport/http/response"
)

// KeyUser gin.Context 中当前登录用户
const KeyUser = "user"

// Authenticator 校验 token 并解析出仍然有效的用户
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

var authFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "auth_failures_total", Help: "Rejected authentication attempts"},
	[]string{"reason"},
)

func init() { prometheus.MustRegister(authFailures) }

// TokenFrom Authorization: Bearer 优先，其次 cookie
func TokenFrom(c *gin.Context, cookieName string) string {
	if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		if tok := strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")); tok != "" {
			return tok
		}
	}
	if cookieName == "" {
		return ""
	}
	if v, err := c.Cookie(cookieName); err == nil && v != "" && v != LoggedOutCookie {
		return v
	}
	return ""
}

// LoggedOutCookie logout 时写回的占位值
const LoggedOutCookie = "loggedout"

func Protect(a Authenticator, cookieName string, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := TokenFrom(c, cookieName)
		if tok == "" {
			authFailures.WithLabelValues("missing").Inc()
			resp.Fail(c, l, apperr.Unauthenticated("You are not logged in! Please log in to get access."))
			return
		}
		u, err := a.Authenticate(c.Request.Context(), tok)
		if err != nil {
			authFailures.WithLabelValues(reason(err)).Inc()
			resp.Fail(c, l, err)
			return
		}
		c.Set(KeyUser, u)
		c.Next()
	}
}

// IsLoggedIn 软校验：失败不报错，只是不挂用户
func IsLoggedIn(a Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := TokenFrom(c, cookieName); tok != "" {
			if u, err := a.Authenticate(c.Request.Context(), tok); err == nil {
				c.Set(KeyUser, u)
			}
		}
		c.Next()
	}
}

// RestrictTo 必须挂在 Protect 之后
func RestrictTo(l *zap.Logger, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			resp.Fail(c, l, apperr.Unauthenticated("You are not logged in! Please log in to get access."))
			return
		}
		if !u.Role.In(roles...) {
			authFailures.WithLabelValues("forbidden").Inc()
			resp.Fail(c, l, apperr.Forbidden("You do not have permission to perform this action"))
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func reason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return "invalid"
	case apperr.Is(err, apperr.KindAuthentication):
		return "rejected"
	default:
		return "error"
	}
}
