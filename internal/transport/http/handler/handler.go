package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/domain"
	mdw "tour-booking-api/internal/transport/http/middleware"
)

// Guards 各模块共用的鉴权中间件
type Guards struct {
	Protect    gin.HandlerFunc
	IsLoggedIn gin.HandlerFunc
	// AuthLimit 登录 / 找回密码的每 IP 限速，可为 nil
	AuthLimit gin.HandlerFunc
	Log       *zap.Logger
}

func NewGuards(a mdw.Authenticator, cookieName string, authLimit gin.HandlerFunc, l *zap.Logger) Guards {
	return Guards{
		Protect:    mdw.Protect(a, cookieName, l),
		IsLoggedIn: mdw.IsLoggedIn(a, cookieName),
		AuthLimit:  authLimit,
		Log:        l,
	}
}

func (g Guards) Restrict(roles ...domain.Role) gin.HandlerFunc {
	return mdw.RestrictTo(g.Log, roles...)
}

// Only Protect + RestrictTo
func (g Guards) Only(roles ...domain.Role) []gin.HandlerFunc {
	return []gin.HandlerFunc{g.Protect, g.Restrict(roles...)}
}

func (g Guards) limited() []gin.HandlerFunc {
	if g.AuthLimit == nil {
		return nil
	}
	return []gin.HandlerFunc{g.AuthLimit}
}

// Page ?page=2&limit=20
type Page struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (p Page) Window() (offset, limit int) {
	limit = p.Limit
	if limit <= 0 {
		limit = 100
	}
	if p.Page > 1 {
		offset = (p.Page - 1) * limit
	}
	return offset, limit
}

// Cookies 登录态 cookie
type Cookies struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func CookiesFrom(j config.JWT, app config.App) Cookies {
	return Cookies{
		Name:   j.CookieName,
		TTL:    time.Duration(j.CookieTTLHours) * time.Hour,
		Secure: j.CookieSecure || app.IsProd(),
	}
}

func (k Cookies) set(c *gin.Context, token string) {
	if k.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.Name, token, int(k.TTL.Seconds()), "/", "", k.Secure, true)
}

// clear 写一个 10 秒后过期的占位值
func (k Cookies) clear(c *gin.Context) {
	if k.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.Name, mdw.LoggedOutCookie, 10, "/", "", k.Secure, true)
}

// origin 请求方站点根地址，配置优先
func origin(c *gin.Context, base string) string {
	if base != "" {
		return base
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
