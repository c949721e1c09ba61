package events

import "time"

type SessionEventKind string

const (
	TokenRefreshed SessionEventKind = "TOKEN_REFRESHED"
	SignedIn       SessionEventKind = "SIGNED_IN"
	SignedOut      SessionEventKind = "SIGNED_OUT"
	UserDeleted    SessionEventKind = "USER_DELETED"
	UserUpdated    SessionEventKind = "USER_UPDATED"
	InitialSession SessionEventKind = "INITIAL_SESSION"
)

// SessionEvent is what the identity service pushes to a user's devices.
type SessionEvent struct {
	Kind          SessionEventKind `json:"kind"`
	UserID        string           `json:"user_id"`
	Email         string           `json:"email,omitempty"`
	EmailVerified bool             `json:"email_verified"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// SessionChannel is the Redis pub/sub channel carrying one user's session events.
func SessionChannel(userID string) string {
	return "auth:events:" + userID
}
