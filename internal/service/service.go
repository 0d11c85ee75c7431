// Package service 承载业务规则；repo 错误和第三方错误在这里翻译成 apperr
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息里使用 json 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var ratingFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "rating_recompute_failures_total",
	Help: "Rating aggregate recomputations that failed and left the tour stale",
})

func init() { prometheus.MustRegister(ratingFailures) }

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Internal("validate input", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Validation("Invalid input data. " + strings.Join(msgs, ". "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please provide a valid email"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "ltfield":
		return fmt.Sprintf("%s should be below %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// repoErr 把 repo 哨兵翻译成对外错误；已经是 apperr 的原样返回
func repoErr(err error, entity string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, domain.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, fmt.Sprintf("No %s found with that ID", entity), err)
	case errors.Is(err, domain.ErrDuplicate):
		return apperr.Wrap(apperr.KindConflict, "Duplicate field value. Please use another value!", err)
	}
	return apperr.Internal(entity+" store", err)
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func clockOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
