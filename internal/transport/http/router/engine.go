package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/core/server"
	mdw "tour-booking-api/internal/transport/http/middleware"
	resp "tour-booking-api/internal/transport/http/response"
)

// newEngine 两个进程共用的中间件链 + /health /metrics；限额为 0 的中间件不挂
func newEngine(l *zap.Logger, lim config.Limits, cors bool) *gin.Engine {
	r := server.NewRouter(l, cors, lim.TrustedProxies)

	chain := []gin.HandlerFunc{mdw.RequestID()}
	if lim.RPS > 0 {
		chain = append(chain, mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst))
	}
	if lim.MaxConcurrent > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(lim.MaxConcurrent))
	}
	if lim.MaxBodyBytes > 0 {
		chain = append(chain, mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.RequestTimeoutSec > 0 {
		chain = append(chain, mdw.Timeout(time.Duration(lim.RequestTimeoutSec)*time.Second))
	}
	chain = append(chain, mdw.SimpleRecovery(l), mdw.Metrics(), mdw.AccessLog(l))
	r.Use(chain...)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": resp.StatusSuccess}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		resp.Abort(c, http.StatusNotFound, "Can't find "+c.Request.URL.Path+" on this server!")
	})
	return r
}

// AuthLimiter 登录 / 找回密码的每 IP 限速
func AuthLimiter(lim config.Limits) gin.HandlerFunc {
	if lim.AuthRPS <= 0 {
		return nil
	}
	return mdw.RateLimitPerIP(rate.Limit(lim.AuthRPS), lim.AuthBurst)
}
