package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "tour-booking-api/internal/transport/http/response"
)

var errHandlerDeadline = errors.New("handler deadline exceeded")

// Timeout 给下游（DB、邮件、支付）一个统一的截止时间；
// handler 在截止前没写响应的，补一个 504
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeoutCause(c.Request.Context(), d, errHandlerDeadline)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(context.Cause(ctx), errHandlerDeadline) && !c.Writer.Written() {
			resp.Abort(c, http.StatusGatewayTimeout, "request timed out")
		}
	}
}

// ConcurrencyLimit 同时处理的请求数上限，排队等待受请求 ctx 约束
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.Header("Retry-After", "1")
			resp.Abort(c, http.StatusServiceUnavailable, "server busy")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}

// MaxBodyBytes 声明了超长 Content-Length 的直接 413；
// 没声明的由 MaxBytesReader 在读取时截断，绑定层再转成 400
func MaxBodyBytes(n int64) gin.HandlerFunc {
	limit := strconv.FormatInt(n, 10)
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.Header("X-Max-Body-Bytes", limit)
			resp.Abort(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
