package attendance

import "time"

type RecordResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Date         string     `json:"date"`
	CheckInTime  *time.Time `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`
	Status       string     `json:"status,omitempty"`
	WorkDuration *int       `json:"work_duration"`
	Notes        string     `json:"notes"`
}

type ReportResponse struct {
	RecordResponse
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

type NotesRequest struct {
	Notes *string `json:"notes" binding:"required,max=2000"`
}
