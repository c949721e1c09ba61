package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"the-work-standard/internal/bootstrap"
	"the-work-standard/internal/domain"
	"the-work-standard/internal/events"
	profileerrors "the-work-standard/internal/profile/errors"
	"the-work-standard/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=profile_service.go -destination=mock/profile_service_mock.go -package=mock
type Service interface {
	Get(ctx context.Context, companyID, id string) (ProfileResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateProfileRequest) (ProfileResponse, error)
	ListByCompany(ctx context.Context, companyID string) ([]ProfileResponse, error)
	UpdateRole(ctx context.Context, companyID, id string, req UpdateRoleRequest) (ProfileResponse, error)
	CreateFromRegistration(ctx context.Context, evt events.UserRegisteredEvent) error
}

// SessionNotifier is satisfied by auth.EventBus.
type SessionNotifier interface {
	Publish(ctx context.Context, event events.SessionEvent) error
}

type service struct {
	repo     Repository
	notifier SessionNotifier
	audit    bootstrap.AuditLogger
	logger   *zap.Logger
}

func NewService(repo Repository, notifier SessionNotifier, audit bootstrap.AuditLogger, logger ...*zap.Logger) Service {
	l := zap.L().Named("profile.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("profile.service")
	}
	return &service{repo: repo, notifier: notifier, audit: audit, logger: l}
}

func (s *service) Get(ctx context.Context, companyID, id string) (ProfileResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ProfileResponse{}, profileerrors.ErrInvalidProfileID
	}

	p, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return ProfileResponse{}, mapNotFound(err)
	}
	return mapToResponse(*p), nil
}

func (s *service) Update(ctx context.Context, companyID, id string, req UpdateProfileRequest) (ProfileResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ProfileResponse{}, profileerrors.ErrInvalidProfileID
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return ProfileResponse{}, profileerrors.ErrNothingToUpdate
		}
		fields["name"] = name
	}
	if len(fields) == 0 {
		return ProfileResponse{}, profileerrors.ErrNothingToUpdate
	}

	if err := s.repo.UpdateFields(ctx, companyID, id, fields); err != nil {
		return ProfileResponse{}, mapNotFound(err)
	}

	contextutil.GetLogger(ctx, s.logger).Info("profile updated", zap.String("profile_id", id))
	return s.Get(ctx, companyID, id)
}

func (s *service) ListByCompany(ctx context.Context, companyID string) ([]ProfileResponse, error) {
	profiles, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		resp[i] = mapToResponse(p)
	}
	return resp, nil
}

func (s *service) UpdateRole(ctx context.Context, companyID, id string, req UpdateRoleRequest) (ProfileResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return ProfileResponse{}, profileerrors.ErrInvalidRole
	}

	before, err := s.Get(ctx, companyID, id)
	if err != nil {
		return ProfileResponse{}, err
	}

	if err := s.repo.UpdateFields(ctx, companyID, id, map[string]any{"role": role}); err != nil {
		return ProfileResponse{}, mapNotFound(err)
	}

	if s.audit != nil {
		s.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "PROFILE_ROLE_CHANGED",
			Message: "profile role updated",
			Meta: map[string]any{
				"profile_id": id,
				"company_id": companyID,
				"from":       before.Role,
				"to":         role,
			},
		})
	}

	// the target's client reloads its profile on USER_UPDATED
	if s.notifier != nil {
		event := events.SessionEvent{
			Kind:          events.UserUpdated,
			UserID:        id,
			Email:         before.Email,
			EmailVerified: true,
			OccurredAt:    time.Now().UTC(),
		}
		if err := s.notifier.Publish(ctx, event); err != nil {
			log.Warn("publish role change failed", zap.String("profile_id", id), zap.Error(err))
		}
	}

	after := before
	after.Role = role
	return after, nil
}

// CreateFromRegistration is replayed by the consumer on redelivery, so an
// existing profile counts as success.
func (s *service) CreateFromRegistration(ctx context.Context, evt events.UserRegisteredEvent) error {
	log := contextutil.GetLogger(ctx, s.logger)

	userID, err := uuid.Parse(evt.UserID)
	if err != nil {
		return profileerrors.ErrInvalidProfileID
	}
	companyID, err := uuid.Parse(evt.CompanyID)
	if err != nil {
		return profileerrors.ErrInvalidProfileID
	}

	p := &Profile{
		ID:        userID,
		CompanyID: companyID,
		Name:      strings.TrimSpace(evt.Name),
		Email:     evt.Email,
		Role:      domain.RoleUser,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if isUniqueViolation(err) {
			log.Info("profile already exists", zap.String("user_id", evt.UserID))
			return nil
		}
		return err
	}

	log.Info("profile created", zap.String("user_id", evt.UserID), zap.String("company_id", evt.CompanyID))
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return profileerrors.ErrProfileNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(p Profile) ProfileResponse {
	return ProfileResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Email:       p.Email,
		CompanyID:   p.CompanyID.String(),
		CompanyName: p.CompanyName,
		Role:        p.Role,
		CreatedAt:   p.CreatedAt,
	}
}
