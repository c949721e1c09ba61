package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Record is one user's attendance for one local calendar date. Status and
// WorkDurationMinutes stay nil until a transition sets them.
type Record struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID              uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_attendance_user_date,priority:1"`
	CompanyID           uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	Date                time.Time  `gorm:"column:date;type:date;not null;uniqueIndex:uq_attendance_user_date,priority:2"`
	CheckInTime         *time.Time `gorm:"column:check_in_time;type:timestamptz"`
	CheckOutTime        *time.Time `gorm:"column:check_out_time;type:timestamptz"`
	Status              *string    `gorm:"column:status;type:varchar(20)"`
	WorkDurationMinutes *int       `gorm:"column:work_duration_minutes"`
	Notes               *string    `gorm:"column:notes;type:text"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "attendance_records"
}

// ReportRow is a Record joined with the owner's profile for the admin report.
type ReportRow struct {
	Record
	UserName  string `gorm:"column:user_name"`
	UserEmail string `gorm:"column:user_email"`
}
