package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-booking-api/internal/service"
	"tour-booking-api/internal/transport/http/ez"
	mdw "tour-booking-api/internal/transport/http/middleware"
)

// UserHandler 当前登录用户的自助接口
type UserHandler struct {
	users  *service.UserService
	guards Guards
}

func NewUserHandler(u *service.UserService, g Guards) *UserHandler {
	return &UserHandler{users: u, guards: g}
}

func (h *UserHandler) Priority() int { return 20 }

func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	l := h.guards.Log
	me := api.Group("/users", h.guards.Protect)

	ez.Register(me, l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet, Path: "/me", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u, err := h.users.Me(c.Request.Context(), mdw.CurrentUser(c).ID)
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	ez.Register(me, l, ez.Action[service.UpdateMeInput, gin.H]{
		Method: http.MethodPatch, Path: "/updateMe", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.UpdateMeInput) (gin.H, error) {
			u, err := h.users.UpdateMe(c.Request.Context(), mdw.CurrentUser(c).ID, *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	ez.Register(me, l, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/deleteMe", Binder: ez.BindNone, Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.users.DeleteMe(c.Request.Context(), mdw.CurrentUser(c).ID)
		},
	})
}
