package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "tour-booking-api/internal/transport/http/response"
)

// SimpleRecovery panic 统一渲染成通用 500，堆栈进日志
func SimpleRecovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.String("panic", fmt.Sprint(rec)),
					zap.Stack("stack"),
				)
				resp.Abort(c, http.StatusInternalServerError, resp.GenericMessage)
			}
		}()
		c.Next()
	}
}
