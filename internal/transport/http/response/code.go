package response

import "net/http"

// 信封 status 字段
const (
	StatusSuccess = "success"
	StatusFail    = "fail"  // 4xx，调用方可修正
	StatusError   = "error" // 5xx
)

// GenericMessage 非业务错误统一对外文案，细节只进日志
const GenericMessage = "Something went wrong!"

// StatusOf 4xx -> fail，其余 -> error
func StatusOf(code int) string {
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError {
		return StatusFail
	}
	return StatusError
}
