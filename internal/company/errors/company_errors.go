package companyerrors

import (
	"net/http"

	"the-work-standard/internal/shared/apperror"
)

var (
	ErrCompanyNotFound = apperror.New(
		apperror.CodeNotFound,
		"Company not found",
		http.StatusNotFound,
	)

	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid company ID",
		http.StatusBadRequest,
	)

	ErrInvalidCompanyCode = apperror.New(
		apperror.CodeInvalidCompanyCode,
		"Invalid company code",
		http.StatusBadRequest,
	)
)
