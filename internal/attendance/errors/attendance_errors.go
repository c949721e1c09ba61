package attendanceerrors

import (
	"net/http"

	"the-work-standard/internal/shared/apperror"
)

var (
	ErrAlreadyCheckedIn = apperror.New(
		apperror.CodeAlreadyCheckedIn,
		"Already checked in today",
		http.StatusConflict,
	)

	ErrNoCheckInRecord = apperror.New(
		apperror.CodeNoCheckInRecord,
		"No check-in record for today",
		http.StatusConflict,
	)

	ErrCheckInTimeMissing = apperror.New(
		apperror.CodeCheckInTimeMissing,
		"Today's record has no check-in time",
		http.StatusConflict,
	)

	ErrAlreadyCheckedOut = apperror.New(
		apperror.CodeAlreadyCheckedOut,
		"Already checked out today",
		http.StatusConflict,
	)

	ErrNoRecordForNotes = apperror.New(
		apperror.CodeNoRecordForNotes,
		"No attendance record for today",
		http.StatusNotFound,
	)

	ErrInvalidTimezone = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid timezone",
		http.StatusBadRequest,
	)

	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"Date must be YYYY-MM-DD",
		http.StatusBadRequest,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid user ID",
		http.StatusBadRequest,
	)
)
