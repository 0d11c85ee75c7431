package apperr

import (
	"errors"
	"net/http"
)

// Kind 错误分类，决定 HTTP 状态码以及是否对外暴露 msg
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDelivery:
		return "delivery"
	default:
		return "internal"
	}
}

// Status 对应的 HTTP 状态码
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Operational 业务可预期错误，msg 可以直接返回给调用方
func (k Kind) Operational() bool { return k != KindInternal }

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error { return &Error{Kind: kind, Msg: msg} }

// Wrap 保留底层错误（哨兵错误可通过 errors.Is 判断）
func Wrap(kind Kind, msg string, err error) error { return &Error{Kind: kind, Msg: msg, Err: err} }

func Validation(msg string) error      { return &Error{Kind: KindValidation, Msg: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: KindAuthentication, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindAuthorization, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Msg: msg} }
func Delivery(msg string, err error) error {
	return &Error{Kind: KindDelivery, Msg: msg, Err: err}
}
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 Internal
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
