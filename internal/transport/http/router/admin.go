package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/transport/http/handler"
)

// NewAdminEngine 管理端 v1（统一要求 admin 角色）
func NewAdminEngine(l *zap.Logger, lim config.Limits, g handler.Guards, reg *Registry) *gin.Engine {
	r := newEngine(l, lim, false)

	admin := r.Group("/admin/v1", g.Only(domain.RoleAdmin)...)
	reg.MountAllAdmin(admin)

	return r
}
