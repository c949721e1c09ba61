// Package attendance tracks today's check-in state for the signed-in user.
package attendance

import (
	"context"
	"time"

	"the-work-standard/internal/shared/result"
)

// Status is computed by the store and only ever rendered here.
type Status string

const (
	StatusUnset      Status = ""
	StatusPresent    Status = "present"
	StatusLate       Status = "late"
	StatusEarlyLeave Status = "early_leave"
)

func (s Status) Label() string {
	switch s {
	case StatusPresent:
		return "정상"
	case StatusLate:
		return "지각"
	case StatusEarlyLeave:
		return "조퇴"
	default:
		return "-"
	}
}

type Record struct {
	ID           string
	UserID       string
	Date         string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Status       Status
	// WorkDuration is whole minutes, set by the store at check-out.
	WorkDuration *int
	Notes        string
}

//go:generate mockgen -source=store.go -destination=mock/store_mock.go -package=mock

type Store interface {
	// GetToday returns nil when the user has not checked in today.
	GetToday(ctx context.Context, userID string) (*Record, error)
	CheckIn(ctx context.Context, userID string) result.Result
	CheckOut(ctx context.Context, userID string) result.Result
	SetNotes(ctx context.Context, userID, text string) result.Result
}
