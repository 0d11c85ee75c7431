package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/config"
)

// NewAPIEngine 用户端：/api/v1
func NewAPIEngine(l *zap.Logger, lim config.Limits, reg *Registry) *gin.Engine {
	r := newEngine(l, lim, true)

	// 前缀
	api := r.Group("/api/v1")
	reg.MountAllAPI(api)

	return r
}
