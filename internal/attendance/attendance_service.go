package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	attendanceerrors "the-work-standard/internal/attendance/errors"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	// GetToday returns nil without error when the user has not checked in.
	GetToday(ctx context.Context, userID, tz string) (*RecordResponse, error)
	CheckIn(ctx context.Context, companyID, userID, tz string) (RecordResponse, error)
	CheckOut(ctx context.Context, userID, tz string) (RecordResponse, error)
	SetNotes(ctx context.Context, userID, tz, notes string) (RecordResponse, error)
	// ListByCompany reports one date, today when date is empty.
	ListByCompany(ctx context.Context, companyID, date, tz string) ([]ReportResponse, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("attendance.service")
		}
	}
}

type service struct {
	db     *gorm.DB
	repo   Repository
	policy Policy
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, policy Policy, opts ...Option) Service {
	if policy.Location == nil {
		policy.Location = DefaultPolicy().Location
	}
	s := &service{
		db:     db,
		repo:   repo,
		policy: policy,
		now:    time.Now,
		logger: zap.L().Named("attendance.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// policyFor resolves the caller's IANA timezone. Empty means the server default.
func (s *service) policyFor(tz string) (Policy, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return s.policy, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Policy{}, attendanceerrors.ErrInvalidTimezone
	}
	return s.policy.In(loc), nil
}

func (s *service) GetToday(ctx context.Context, userID, tz string) (*RecordResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, attendanceerrors.ErrInvalidUserID
	}
	policy, err := s.policyFor(tz)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByUserAndDate(ctx, uid, policy.LocalDate(s.now()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	resp := mapToResponse(*rec)
	return &resp, nil
}

func (s *service) CheckIn(ctx context.Context, companyID, userID, tz string) (RecordResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	uid, err := uuid.Parse(userID)
	if err != nil {
		return RecordResponse{}, attendanceerrors.ErrInvalidUserID
	}
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return RecordResponse{}, apperror.InvalidField("company_id")
	}
	policy, err := s.policyFor(tz)
	if err != nil {
		return RecordResponse{}, err
	}

	now := s.now().UTC()
	date := policy.LocalDate(now)
	day, _ := time.ParseInLocation(dateLayout, date, policy.Location)
	status := policy.CheckInStatus(now)

	var saved *Record
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		existing, err := qtx.FindByUserAndDate(ctx, uid, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil && existing.CheckInTime != nil {
			return attendanceerrors.ErrAlreadyCheckedIn
		}

		rec := &Record{
			ID:          uuid.New(),
			UserID:      uid,
			CompanyID:   cid,
			Date:        day,
			CheckInTime: &now,
			Status:      &status,
		}
		won, err := qtx.UpsertCheckIn(ctx, rec)
		if err != nil {
			return err
		}
		if !won {
			return attendanceerrors.ErrAlreadyCheckedIn
		}

		saved, err = qtx.FindByUserAndDate(ctx, uid, date)
		return err
	})
	if err != nil {
		if !errors.Is(err, attendanceerrors.ErrAlreadyCheckedIn) {
			log.Error("check in failed", zap.String("user_id", userID), zap.Error(err))
		}
		return RecordResponse{}, err
	}

	log.Info("checked in",
		zap.String("user_id", userID),
		zap.String("date", date),
		zap.String("status", status),
	)
	return mapToResponse(*saved), nil
}

func (s *service) CheckOut(ctx context.Context, userID, tz string) (RecordResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	uid, err := uuid.Parse(userID)
	if err != nil {
		return RecordResponse{}, attendanceerrors.ErrInvalidUserID
	}
	policy, err := s.policyFor(tz)
	if err != nil {
		return RecordResponse{}, err
	}

	now := s.now().UTC()
	date := policy.LocalDate(now)

	var saved *Record
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		rec, err := qtx.FindByUserAndDate(ctx, uid, date)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return attendanceerrors.ErrNoCheckInRecord
			}
			return err
		}
		if rec.CheckInTime == nil {
			return attendanceerrors.ErrCheckInTimeMissing
		}
		if rec.CheckOutTime != nil {
			return attendanceerrors.ErrAlreadyCheckedOut
		}

		current := ""
		if rec.Status != nil {
			current = *rec.Status
		}
		status := policy.CheckOutStatus(current, now)
		minutes := WorkDurationMinutes(*rec.CheckInTime, now)

		ok, err := qtx.MarkCheckOut(ctx, rec.ID, now, status, minutes)
		if err != nil {
			return err
		}
		if !ok {
			// lost a race with another device
			return attendanceerrors.ErrAlreadyCheckedOut
		}

		rec.CheckOutTime = &now
		rec.Status = &status
		rec.WorkDurationMinutes = &minutes
		saved = rec
		return nil
	})
	if err != nil {
		if !isPrecondition(err) {
			log.Error("check out failed", zap.String("user_id", userID), zap.Error(err))
		}
		return RecordResponse{}, err
	}

	log.Info("checked out",
		zap.String("user_id", userID),
		zap.String("date", date),
		zap.String("status", *saved.Status),
		zap.Int("work_duration_minutes", *saved.WorkDurationMinutes),
	)
	return mapToResponse(*saved), nil
}

func (s *service) SetNotes(ctx context.Context, userID, tz, notes string) (RecordResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return RecordResponse{}, attendanceerrors.ErrInvalidUserID
	}
	policy, err := s.policyFor(tz)
	if err != nil {
		return RecordResponse{}, err
	}

	rec, err := s.repo.FindByUserAndDate(ctx, uid, policy.LocalDate(s.now()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecordResponse{}, attendanceerrors.ErrNoRecordForNotes
		}
		return RecordResponse{}, err
	}
	if rec.CheckInTime == nil {
		return RecordResponse{}, attendanceerrors.ErrNoRecordForNotes
	}

	if err := s.repo.UpdateNotes(ctx, rec.ID, notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecordResponse{}, attendanceerrors.ErrNoRecordForNotes
		}
		return RecordResponse{}, err
	}

	rec.Notes = &notes
	return mapToResponse(*rec), nil
}

func (s *service) ListByCompany(ctx context.Context, companyID, date, tz string) ([]ReportResponse, error) {
	policy, err := s.policyFor(tz)
	if err != nil {
		return nil, err
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = policy.LocalDate(s.now())
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, attendanceerrors.ErrInvalidDate
	}

	rows, err := s.repo.FindAllByCompanyAndDate(ctx, companyID, date)
	if err != nil {
		return nil, err
	}

	resp := make([]ReportResponse, len(rows))
	for i, row := range rows {
		resp[i] = ReportResponse{
			RecordResponse: mapToResponse(row.Record),
			UserName:       row.UserName,
			UserEmail:      row.UserEmail,
		}
	}
	return resp, nil
}

func isPrecondition(err error) bool {
	return errors.Is(err, attendanceerrors.ErrNoCheckInRecord) ||
		errors.Is(err, attendanceerrors.ErrCheckInTimeMissing) ||
		errors.Is(err, attendanceerrors.ErrAlreadyCheckedOut)
}

func mapToResponse(r Record) RecordResponse {
	resp := RecordResponse{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		Date:         r.Date.Format(dateLayout),
		CheckInTime:  r.CheckInTime,
		CheckOutTime: r.CheckOutTime,
		WorkDuration: r.WorkDurationMinutes,
	}
	if r.Status != nil {
		resp.Status = *r.Status
	}
	if r.Notes != nil {
		resp.Notes = *r.Notes
	}
	return resp
}
