package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/apperr"
)

type Resp struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK 成功响应，data 按原样包一层
func OK(data any) Resp {
	return Resp{Status: StatusSuccess, Data: data}
}

// List 带 results 计数
func List(n int, data any) Resp {
	return Resp{Status: StatusSuccess, Results: &n, Data: data}
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := customMsg
	if msg == "" {
		msg = http.StatusText(code)
	}
	return Resp{Status: StatusOf(code), Message: msg}
}

func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Error(code, msg))
}

// Fail 按 apperr.Kind 写出状态码；非业务错误只记日志，对外返回通用文案
func Fail(c *gin.Context, log *zap.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind.Operational() {
		if ae.Kind == apperr.KindDelivery && log != nil {
			log.Warn("delivery failed", zap.String("rid", c.GetString(requestIDKey)), zap.Error(err))
		}
		Abort(c, ae.Kind.Status(), ae.Error())
		return
	}
	if log != nil {
		log.Error("request failed",
			zap.String("rid", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	Abort(c, http.StatusInternalServerError, GenericMessage)
}

const requestIDKey = "X-Request-ID"
