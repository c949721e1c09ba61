package app

import (
	"the-work-standard/internal/attendance"
	"the-work-standard/internal/auth"
	"the-work-standard/internal/company"
	"the-work-standard/internal/profile"

	"gorm.io/gorm"
)

const outboxDDL = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id uuid PRIMARY KEY,
	request_id text,
	aggregate_type varchar(50) NOT NULL,
	aggregate_id uuid NOT NULL,
	event_type varchar(100) NOT NULL,
	topic varchar(255) NOT NULL,
	payload jsonb NOT NULL,
	status varchar(20) NOT NULL DEFAULT 'pending',
	retry_count int NOT NULL DEFAULT 0,
	error_message text,
	next_retry_at timestamptz,
	processed_at timestamptz,
	created_at timestamptz NOT NULL DEFAULT NOW(),
	updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_outbox_events_pending ON outbox_events (status, next_retry_at, created_at);
`

// Migrate creates or updates every table the API, worker and consumer use.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&company.Company{},
		&auth.Credential{},
		&profile.Profile{},
		&attendance.Record{},
	); err != nil {
		return err
	}
	return db.Exec(outboxDDL).Error
}
