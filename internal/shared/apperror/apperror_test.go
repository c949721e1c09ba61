package apperror_test

import (
	"errors"
	"net/http"
	"testing"

	"the-work-standard/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

func TestMapValidationError(t *testing.T) {
	v := validator.New()

	t.Run("Required Field Named First", func(t *testing.T) {
		err := apperror.MapValidationError(v.Struct(signUpBody{Password: "abc"}))

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
		assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
		assert.Equal(t, "Email is required", appErr.Message)

		violations, ok := appErr.Details.([]apperror.FieldViolation)
		require.True(t, ok)
		assert.Len(t, violations, 2)
		assert.Equal(t, apperror.FieldViolation{Field: "Password", Rule: "min", Param: "6"}, violations[1])
	})

	t.Run("Oneof", func(t *testing.T) {
		err := apperror.MapValidationError(v.Struct(signUpBody{Email: "a@b.co", Password: "secret1", Role: "root"}))
		assert.EqualError(t, err, "Role must be one of: user admin")
	})

	t.Run("Not A Validation Error", func(t *testing.T) {
		err := apperror.MapValidationError(errors.New("unexpected EOF"))
		assert.Equal(t, apperror.CodeInvalidInput, apperror.CodeOf(err))
		assert.Nil(t, apperror.ToHTTP(err).Details)
	})
}

func TestAppError(t *testing.T) {
	t.Run("Derived Errors Match The Catalogue", func(t *testing.T) {
		derived := apperror.ErrForbidden.WithDetails("admin only")
		assert.ErrorIs(t, derived, apperror.ErrForbidden)
		assert.Nil(t, apperror.ErrForbidden.Details)
		assert.Equal(t, "admin only", apperror.ToHTTP(derived).Details)
	})

	t.Run("Wrap Keeps The Cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := apperror.Wrap(cause, apperror.CodeServiceUnavailable, "Store unavailable", http.StatusServiceUnavailable)

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "Store unavailable: connection refused", err.Error())
		assert.Nil(t, apperror.Wrap(nil, apperror.CodeInternalError, "x", http.StatusInternalServerError))
	})

	t.Run("Unknown Errors Become Internal", func(t *testing.T) {
		h := apperror.ToHTTP(errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, h.Status)
		assert.Equal(t, apperror.CodeInternalError, h.Code)
		assert.Empty(t, apperror.CodeOf(errors.New("boom")))
	})
}
