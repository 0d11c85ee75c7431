package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/apperr"
	resp "tour-booking-api/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
// O 为 resp.Resp 时原样输出，否则包成 {status:"success", data}
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PATCH" | "PUT" | "DELETE"
	Path    string // 例："/users/login"、"/tours/:id"
	Binder  Binder
	Status  int               // 成功状态码，默认 200；204 不写 body
	Use     []gin.HandlerFunc // 路由级中间件（Protect / RestrictTo / 限流）
	Handler func(c *gin.Context, in *I) (O, error)
}

// Register 在分组下注册动作接口，错误统一走 resp.Fail
func Register[I any, O any](g gin.IRoutes, l *zap.Logger, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			resp.Fail(c, l, err)
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			resp.Fail(c, l, err)
			return
		}

		code := a.Status
		if code == 0 {
			code = http.StatusOK
		}
		if code == http.StatusNoContent {
			c.Status(code)
			return
		}
		if r, ok := any(out).(resp.Resp); ok {
			c.JSON(code, r)
			return
		}
		c.JSON(code, resp.OK(out))
	}

	chain := append(append([]gin.HandlerFunc{}, a.Use...), h)
	g.Handle(strings.ToUpper(orDefault(a.Method, http.MethodPost)), a.Path, chain...)
}

func bind(c *gin.Context, b Binder, in any) error {
	var err error
	switch b {
	case BindJSON:
		err = c.ShouldBindJSON(in)
		if errors.Is(err, io.EOF) {
			// 空 body 交给业务层校验必填
			err = nil
		}
	case BindQuery:
		err = c.ShouldBindQuery(in)
	default: // BindNone: 不绑定
	}
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apperr.Validation("Request body too large.")
	}
	return apperr.Wrap(apperr.KindValidation, "Invalid input data. Malformed request.", err)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
