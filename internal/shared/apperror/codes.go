package apperror

// Codes are part of the wire contract; the workdesk client matches on them.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"

	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// auth
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeEmailNotConfirmed   = "EMAIL_NOT_CONFIRMED"
	CodeAlreadyRegistered   = "ALREADY_REGISTERED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeInvalidCompanyCode  = "INVALID_COMPANY_CODE"
)

// attendance
const (
	CodeAlreadyCheckedIn   = "ALREADY_CHECKED_IN"
	CodeAlreadyCheckedOut  = "ALREADY_CHECKED_OUT"
	CodeNoCheckInRecord    = "NO_CHECK_IN_RECORD"
	CodeCheckInTimeMissing = "CHECK_IN_TIME_MISSING"
	CodeNoRecordForNotes   = "NO_RECORD_FOR_NOTES"
)
