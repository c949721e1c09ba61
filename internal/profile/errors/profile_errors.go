package profileerrors

import (
	"net/http"

	"the-work-standard/internal/shared/apperror"
)

var (
	ErrProfileNotFound = apperror.New(
		apperror.CodeNotFound,
		"Profile not found",
		http.StatusNotFound,
	)

	ErrInvalidProfileID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid profile ID",
		http.StatusBadRequest,
	)

	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"Role must be user or admin",
		http.StatusBadRequest,
	)

	ErrNothingToUpdate = apperror.New(
		apperror.CodeInvalidInput,
		"No fields to update",
		http.StatusBadRequest,
	)

	ErrNotOwnProfile = apperror.New(
		apperror.CodeForbidden,
		"Only the owner can edit this profile",
		http.StatusForbidden,
	)
)
