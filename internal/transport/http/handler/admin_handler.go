package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/service"
	"tour-booking-api/internal/transport/http/ez"
	resp "tour-booking-api/internal/transport/http/response"
)

// AdminUserHandler 管理端用户管理；分组已挂 Protect + RestrictTo(admin)
type AdminUserHandler struct {
	users  *service.UserService
	guards Guards
}

func NewAdminUserHandler(u *service.UserService, g Guards) *AdminUserHandler {
	return &AdminUserHandler{users: u, guards: g}
}

func (h *AdminUserHandler) Priority() int { return 10 }

func (h *AdminUserHandler) MountAdmin(admin *gin.RouterGroup) {
	l := h.guards.Log
	users := admin.Group("/users")

	// --- GET /admin/v1/users  用户列表 ---
	type listQ struct {
		Page
		Q            string `form:"q"`             // 按 email/name 模糊搜
		WithInactive bool   `form:"with_inactive"` // 是否包含已停用
	}
	ez.Register(users, l, ez.Action[listQ, resp.Resp]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (resp.Resp, error) {
			off, lim := in.Window()
			us, total, err := h.users.List(c.Request.Context(), domain.UserQuery{Q: in.Q, WithInactive: in.WithInactive, Offset: off, Limit: lim})
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.List(len(us), gin.H{"users": us, "total": total}), nil
		},
	})

	ez.Register(users, l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u, err := h.users.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	ez.Register(users, l, ez.Action[service.AdminUserUpdate, gin.H]{
		Method: http.MethodPatch, Path: "/:id", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.AdminUserUpdate) (gin.H, error) {
			u, err := h.users.Update(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	ez.Register(users, l, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.users.Delete(c.Request.Context(), c.Param("id"))
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（停用） ---
	ez.Register(users, l, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost, Path: "/:id/ban", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := h.users.Ban(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
