package autherrors

import (
	"net/http"

	"the-work-standard/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		apperror.CodeInvalidCredentials,
		"Invalid login credentials",
		http.StatusUnauthorized,
	)

	ErrEmailNotConfirmed = apperror.New(
		apperror.CodeEmailNotConfirmed,
		"Email not confirmed",
		http.StatusUnauthorized,
	)

	ErrUserAlreadyRegistered = apperror.New(
		apperror.CodeAlreadyRegistered,
		"User already registered",
		http.StatusConflict,
	)

	ErrInvalidCompany = apperror.New(
		apperror.CodeInvalidCompanyCode,
		"Company does not exist",
		http.StatusBadRequest,
	)

	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid user ID",
		http.StatusBadRequest,
	)

	ErrInvalidToken = apperror.New(
		apperror.CodeInvalidToken,
		"Invalid token",
		http.StatusUnauthorized,
	)

	ErrTokenExpired = apperror.New(
		apperror.CodeTokenExpired,
		"Token has expired",
		http.StatusUnauthorized,
	)

	ErrInvalidRefreshToken = apperror.New(
		apperror.CodeInvalidRefreshToken,
		"Invalid refresh token",
		http.StatusUnauthorized,
	)

	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"Failed to generate token",
		http.StatusInternalServerError,
	)

	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)
)
