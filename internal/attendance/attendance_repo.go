package attendance

import (
	"context"
	"time"

	"the-work-standard/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindByUserAndDate returns gorm.ErrRecordNotFound when the day has no record.
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*Record, error)
	// UpsertCheckIn reports false when another writer already holds the check-in.
	UpsertCheckIn(ctx context.Context, rec *Record) (bool, error)
	// MarkCheckOut reports false when the record is not open for check-out.
	MarkCheckOut(ctx context.Context, id uuid.UUID, checkOut time.Time, status string, minutes int) (bool, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	FindAllByCompanyAndDate(ctx context.Context, companyID, date string) ([]ReportRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("date = ?", date).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertCheckIn only touches the check-in columns so a concurrent notes
// write on the same row survives. The first check-in of the day wins.
func (r *repository) UpsertCheckIn(ctx context.Context, rec *Record) (bool, error) {
	query := `
INSERT INTO attendance_records (
	id, user_id, company_id, date, check_in_time, status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, date) DO UPDATE SET
	check_in_time = EXCLUDED.check_in_time,
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at
WHERE attendance_records.check_in_time IS NULL
`
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Exec(
		query,
		rec.ID, rec.UserID, rec.CompanyID, rec.Date.Format(dateLayout),
		rec.CheckInTime, rec.Status, now, now,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkCheckOut(ctx context.Context, id uuid.UUID, checkOut time.Time, status string, minutes int) (bool, error) {
	query := `
UPDATE attendance_records
SET check_out_time = ?, status = ?, work_duration_minutes = ?, updated_at = ?
WHERE id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL
`
	res := r.db.WithContext(ctx).Exec(query, checkOut, status, minutes, time.Now().UTC(), id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE attendance_records SET notes = ?, updated_at = ? WHERE id = ?`,
		notes, time.Now().UTC(), id,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindAllByCompanyAndDate(ctx context.Context, companyID, date string) ([]ReportRow, error) {
	var rows []ReportRow
	err := r.db.WithContext(ctx).
		Table("attendance_records").
		Select("attendance_records.*, profiles.name AS user_name, profiles.email AS user_email").
		Joins("LEFT JOIN profiles ON profiles.id = attendance_records.user_id").
		Scopes(tenant.Company(companyID, "attendance_records")).
		Where("attendance_records.date = ?", date).
		Order("attendance_records.check_in_time ASC").
		Scan(&rows).Error
	return rows, err
}
