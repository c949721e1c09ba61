// Package result is the value every mutating client operation resolves to.
// Callers branch on Reason and show Message; they never see raw errors.
package result

import (
	"errors"
	"strings"

	"the-work-standard/internal/shared/apperror"
)

type Reason string

const (
	ReasonNone Reason = ""

	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonEmailNotConfirmed  Reason = "email_not_confirmed"
	ReasonAlreadyRegistered  Reason = "already_registered"
	ReasonInvalidCompanyCode Reason = "invalid_company_code"
	ReasonUnauthenticated    Reason = "unauthenticated"
	ReasonForbidden          Reason = "forbidden"

	ReasonAlreadyCheckedIn   Reason = "already_checked_in"
	ReasonNoCheckInRecord    Reason = "no_check_in_record"
	ReasonCheckInTimeMissing Reason = "check_in_time_missing"
	ReasonAlreadyCheckedOut  Reason = "already_checked_out"
	ReasonNoRecordForNotes   Reason = "no_record_for_notes"
	ReasonInFlight           Reason = "in_flight"

	ReasonNotFound     Reason = "not_found"
	ReasonInvalidInput Reason = "invalid_input"
	ReasonFailed       Reason = "failed"
)

var messages = map[Reason]string{
	ReasonInvalidCredentials: "이메일 또는 비밀번호가 올바르지 않습니다.",
	ReasonEmailNotConfirmed:  "이메일 확인이 필요합니다.",
	ReasonAlreadyRegistered:  "이미 등록된 이메일입니다.",
	ReasonInvalidCompanyCode: "유효하지 않은 회사 코드입니다.",
	ReasonUnauthenticated:    "로그인이 필요합니다.",
	ReasonForbidden:          "접근 권한이 없습니다",
	ReasonAlreadyCheckedIn:   "이미 출근 처리되었습니다.",
	ReasonNoCheckInRecord:    "출근 기록이 없습니다. 먼저 출근 체크를 해주세요.",
	ReasonCheckInTimeMissing: "출근 시간이 기록되지 않았습니다.",
	ReasonAlreadyCheckedOut:  "이미 퇴근 처리되었습니다.",
	ReasonNoRecordForNotes:   "오늘 출근 기록이 없습니다.",
	ReasonInFlight:           "요청을 처리하는 중입니다.",
	ReasonNotFound:           "요청한 정보를 찾을 수 없습니다.",
	ReasonInvalidInput:       "입력값이 올바르지 않습니다.",
	ReasonFailed:             "요청 처리 중 오류가 발생했습니다.",
}

type Result struct {
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

func Success(message string) Result {
	return Result{Message: message}
}

// Fail builds a failed Result. An empty message falls back to the default
// text for reason.
func Fail(reason Reason, message string) Result {
	if reason == ReasonNone {
		reason = ReasonFailed
	}
	if message == "" {
		message = MessageFor(reason)
	}
	return Result{Reason: reason, Message: message}
}

func MessageFor(reason Reason) string {
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return messages[ReasonFailed]
}

// ReasonFromCode maps an API error code (e.g. ALREADY_CHECKED_IN) onto a Reason.
// Generic codes collapse onto the closest generic reason.
func ReasonFromCode(code string) Reason {
	r := Reason(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := messages[r]; ok {
		return r
	}
	switch code {
	case apperror.CodeUnauthorized:
		return ReasonUnauthenticated
	case apperror.CodeForbidden:
		return ReasonForbidden
	case apperror.CodeNotFound:
		return ReasonNotFound
	case apperror.CodeInvalidInput:
		return ReasonInvalidInput
	default:
		return ReasonFailed
	}
}

// FromError converts err into a failed Result. A nil err is a success with
// no message.
func FromError(err error) Result {
	if err == nil {
		return Result{}
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return Fail(ReasonFromCode(appErr.Code), "")
	}
	return Fail(ReasonFailed, "")
}
