package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/service"
	"tour-booking-api/internal/transport/http/ez"
	mdw "tour-booking-api/internal/transport/http/middleware"
	resp "tour-booking-api/internal/transport/http/response"
)

// ResetSentMessage 无论邮箱是否存在都返回同一句话
const ResetSentMessage = "If that email exists, a password reset link has been sent to it."

type AuthHandler struct {
	auth    *service.AuthService
	cookies Cookies
	guards  Guards
	// baseURL 为空时按请求 Host 拼重置链接
	baseURL string
}

func NewAuthHandler(a *service.AuthService, k Cookies, g Guards, baseURL string) *AuthHandler {
	return &AuthHandler{auth: a, cookies: k, guards: g, baseURL: baseURL}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotIn struct {
	Email string `json:"email"`
}

type resetIn struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type updatePasswordIn struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	l := h.guards.Log
	users := api.Group("/users")

	ez.Register(users, l, ez.Action[service.SignupInput, resp.Resp]{
		Method: http.MethodPost, Path: "/signup", Binder: ez.BindJSON, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.SignupInput) (resp.Resp, error) {
			res, err := h.auth.Signup(c.Request.Context(), *in)
			if err != nil {
				return resp.Resp{}, err
			}
			return h.session(c, res), nil
		},
	})

	ez.Register(users, l, ez.Action[loginIn, resp.Resp]{
		Method: http.MethodPost, Path: "/login", Binder: ez.BindJSON, Use: h.guards.limited(),
		Handler: func(c *gin.Context, in *loginIn) (resp.Resp, error) {
			res, err := h.auth.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return resp.Resp{}, err
			}
			return h.session(c, res), nil
		},
	})

	ez.Register(users, l, ez.Action[struct{}, resp.Resp]{
		Method: http.MethodGet, Path: "/logout", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.Resp, error) {
			h.cookies.clear(c)
			return resp.Resp{Status: resp.StatusSuccess}, nil
		},
	})

	ez.Register(users, l, ez.Action[forgotIn, resp.Resp]{
		Method: http.MethodPost, Path: "/forgotPassword", Binder: ez.BindJSON, Use: h.guards.limited(),
		Handler: func(c *gin.Context, in *forgotIn) (resp.Resp, error) {
			link := origin(c, h.baseURL) + "/api/v1/users/resetPassword"
			err := h.auth.RequestReset(c.Request.Context(), in.Email, link)
			// 未注册邮箱与成功同样返回，避免账号枚举
			if err != nil && !apperr.Is(err, apperr.KindNotFound) {
				return resp.Resp{}, err
			}
			return resp.Resp{Status: resp.StatusSuccess, Message: ResetSentMessage}, nil
		},
	})

	ez.Register(users, l, ez.Action[resetIn, resp.Resp]{
		Method: http.MethodPatch, Path: "/resetPassword/:token", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *resetIn) (resp.Resp, error) {
			res, err := h.auth.CompleteReset(c.Request.Context(), c.Param("token"), in.Password, in.PasswordConfirm)
			if err != nil {
				return resp.Resp{}, err
			}
			return h.session(c, res), nil
		},
	})

	ez.Register(users, l, ez.Action[updatePasswordIn, resp.Resp]{
		Method: http.MethodPatch, Path: "/updateMyPassword", Binder: ez.BindJSON, Use: []gin.HandlerFunc{h.guards.Protect},
		Handler: func(c *gin.Context, in *updatePasswordIn) (resp.Resp, error) {
			me := mdw.CurrentUser(c)
			if me == nil {
				return resp.Resp{}, errors.New("protect did not attach a user")
			}
			res, err := h.auth.UpdatePassword(c.Request.Context(), me.ID, in.PasswordCurrent, in.Password, in.PasswordConfirm)
			if err != nil {
				return resp.Resp{}, err
			}
			return h.session(c, res), nil
		},
	})
}

// session 写 cookie 并返回 {status, token, data:{user}}
func (h *AuthHandler) session(c *gin.Context, res *service.AuthResult) resp.Resp {
	h.cookies.set(c, res.Token)
	return resp.Resp{Status: resp.StatusSuccess, Token: res.Token, Data: gin.H{"user": res.User}}
}
