package server

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 路径里带一次性凭据的请求不进 ginzap（它记录原始 URL）
var secretPaths = []*regexp.Regexp{regexp.MustCompile(`/resetPassword/`)}

// NewRouter gin 引擎 + panic 兜底；withCORS 只给面向浏览器的进程开。
// trusted 为可信反代，nil 表示 ClientIP 只取 TCP 对端。
// 常规访问日志由 middleware.AccessLog 负责，ginzap 只补记 5xx 和 c.Errors 里的内部错误。
func NewRouter(l *zap.Logger, withCORS bool, trusted []string) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(trusted); err != nil {
		l.Warn("bad trusted proxies, falling back to peer address", zap.Strings("proxies", trusted), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(ginzap.GinzapWithConfig(l.Named("http"), &ginzap.Config{
		TimeFormat:      time.RFC3339,
		UTC:             true,
		SkipPaths:       []string{"/health", "/metrics"},
		SkipPathRegexps: secretPaths,
		Skipper: func(c *gin.Context) bool {
			return c.Writer.Status() < http.StatusInternalServerError && len(c.Errors) == 0
		},
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{zap.String("rid", c.GetString("X-Request-ID"))}
		},
		DefaultLevel: zapcore.WarnLevel,
	}))
	r.Use(ginzap.RecoveryWithZap(l, true))
	if withCORS {
		cfg := cors.DefaultConfig()
		cfg.AllowAllOrigins = true
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
		r.Use(cors.New(cfg))
	}
	return r
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
