package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var maskedParams = map[string]bool{
	"password": true, "passwordconfirm": true, "passwordcurrent": true,
	"token": true, "authorization": true, "secret": true, "access_token": true,
}

func maskQuery(q url.Values) map[string][]string {
	if len(q) == 0 {
		return nil
	}
	out := make(map[string][]string, len(q))
	for k, v := range q {
		if maskedParams[strings.ToLower(k)] {
			v = []string{"****"}
		}
		out[k] = v
	}
	return out
}

// levelFor 5xx 记 error，4xx 记 warn
func levelFor(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func AccessLog(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		status := c.Writer.Status()
		ce := l.Check(levelFor(status), "access")
		if ce == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("took", time.Since(began)),
			zap.String("ip", c.ClientIP()),
		}
		if u := CurrentUser(c); u != nil {
			fields = append(fields, zap.String("uid", u.ID))
		}
		if q := maskQuery(c.Request.URL.Query()); q != nil {
			fields = append(fields, zap.Any("query", q))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("ua", ua))
		}
		ce.Write(fields...)
	}
}
