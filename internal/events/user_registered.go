package events

import "time"

const UserRegisteredTopic = "tws.auth.user.registered.v1"

type UserRegisteredEvent struct {
	EventType  string    `json:"event_type"`
	UserID     string    `json:"user_id"`
	CompanyID  string    `json:"company_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}
