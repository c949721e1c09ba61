package remote

import (
	"context"
	"net/http"
	"net/url"

	attendanceapi "the-work-standard/internal/attendance"
	"the-work-standard/internal/client/attendance"
	"the-work-standard/internal/shared/result"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttendanceStore is the attendance.Store backed by the API. The API always
// acts for the token owner, so other user ids are refused locally.
type AttendanceStore struct {
	client *Client
	logger *zap.Logger
}

func NewAttendanceStore(client *Client) *AttendanceStore {
	return &AttendanceStore{client: client, logger: client.logger.Named("attendance")}
}

func (s *AttendanceStore) GetToday(ctx context.Context, userID string) (*attendance.Record, error) {
	if err := s.client.requireUser(userID); err != nil {
		return nil, err
	}

	var out *attendanceapi.RecordResponse
	if err := s.client.do(ctx, http.MethodGet, "/attendance/today", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	rec := recordFrom(*out)
	return &rec, nil
}

func (s *AttendanceStore) CheckIn(ctx context.Context, userID string) result.Result {
	return s.mutate(ctx, userID, "/attendance/check-in", "출근이 기록되었습니다.")
}

func (s *AttendanceStore) CheckOut(ctx context.Context, userID string) result.Result {
	return s.mutate(ctx, userID, "/attendance/check-out", "퇴근이 기록되었습니다.")
}

func (s *AttendanceStore) SetNotes(ctx context.Context, userID, text string) result.Result {
	if err := s.client.requireUser(userID); err != nil {
		return result.FromError(err)
	}

	err := s.client.do(ctx, http.MethodPut, "/attendance/notes", attendanceapi.NotesRequest{Notes: &text}, nil)
	if err != nil {
		s.logger.Debug("save notes failed", zap.Error(err))
		return result.FromError(err)
	}
	return result.Success("메모가 저장되었습니다.")
}

// ReportRow is one member's record in the company report.
type ReportRow struct {
	attendance.Record
	UserName  string
	UserEmail string
}

// Report lists every member's record for date (YYYY-MM-DD, empty for today).
func (s *AttendanceStore) Report(ctx context.Context, date string) ([]ReportRow, error) {
	path := "/attendance"
	if date != "" {
		path += "?" + url.Values{"date": {date}}.Encode()
	}

	var out []attendanceapi.ReportResponse
	if err := s.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(out))
	for _, r := range out {
		rows = append(rows, ReportRow{Record: recordFrom(r.RecordResponse), UserName: r.UserName, UserEmail: r.UserEmail})
	}
	return rows, nil
}

func (s *AttendanceStore) mutate(ctx context.Context, userID, path, message string) result.Result {
	if err := s.client.requireUser(userID); err != nil {
		return result.FromError(err)
	}

	// one key per user action; transport retries replay it
	err := s.client.do(ctx, http.MethodPost, path, nil, nil, withHeader("Idempotency-Key", uuid.NewString()))
	if err != nil {
		s.logger.Debug("attendance call failed", zap.String("path", path), zap.Error(err))
		return result.FromError(err)
	}
	return result.Success(message)
}

func recordFrom(r attendanceapi.RecordResponse) attendance.Record {
	return attendance.Record{
		ID:           r.ID,
		UserID:       r.UserID,
		Date:         r.Date,
		CheckInTime:  r.CheckInTime,
		CheckOutTime: r.CheckOutTime,
		Status:       attendance.Status(r.Status),
		WorkDuration: r.WorkDuration,
		Notes:        r.Notes,
	}
}
