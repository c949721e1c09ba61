package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Init makes gin's validator report json field names.
func Init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FieldViolation is one entry of the details list on a validation error.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

var titleCaser = cases.Title(language.English)

// company_id -> Company Id
func formatFieldName(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// MapValidationError turns a bind error into an INVALID_INPUT AppError. The
// message names the first failing field; details list every violation.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return New(CodeInvalidInput, "Request body is not valid JSON", http.StatusBadRequest)
	}

	violations := make([]FieldViolation, 0, len(errs))
	for _, fe := range errs {
		violations = append(violations, FieldViolation{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}

	first := errs[0]
	field := formatFieldName(first.Field())
	var appErr *AppError
	switch first.Tag() {
	case "required":
		appErr = RequiredField(field)
	case "max":
		appErr = New(CodeInvalidInput, fmt.Sprintf("%s must be at most %s characters", field, first.Param()), http.StatusBadRequest)
	case "min":
		appErr = New(CodeInvalidInput, fmt.Sprintf("%s must be at least %s characters", field, first.Param()), http.StatusBadRequest)
	case "oneof":
		appErr = New(CodeInvalidInput, fmt.Sprintf("%s must be one of: %s", field, first.Param()), http.StatusBadRequest)
	default:
		appErr = InvalidField(field)
	}
	return appErr.WithDetails(violations)
}
