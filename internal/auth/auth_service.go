package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	autherrors "the-work-standard/internal/auth/errors"
	"the-work-standard/internal/company"
	"the-work-standard/internal/events"
	"the-work-standard/internal/messaging/kafka"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/contextutil"
	"the-work-standard/internal/shared/token"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultRole = "user"

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	SignIn(ctx context.Context, req SignInRequest) (SessionResponse, error)
	SignUp(ctx context.Context, req SignUpRequest) (SessionResponse, error)
	SignOut(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (SessionResponse, error)
	GetSession(ctx context.Context, userID string) (SessionResponse, error)
	ConfirmEmail(ctx context.Context, confirmToken string) (SessionResponse, error)
	DeleteUser(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string) (EventStream, error)
}

type CompanyLookup interface {
	GetByID(ctx context.Context, id string) (*company.CompanyResponse, error)
}

// RoleLookup resolves the current role for the token claims. A user whose
// profile has not been created yet gets the default role.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, email, confirmToken string) error
}

type Option func(*service)

// WithEmailConfirmation makes sign-up hold the account until the token sent
// through sender is redeemed.
func WithEmailConfirmation(sender ConfirmationSender) Option {
	return func(s *service) {
		s.requireConfirmation = true
		s.confirmations = sender
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("auth.service")
		}
	}
}

type service struct {
	db        *gorm.DB
	repo      Repository
	outbox    kafka.OutboxRepository
	companies CompanyLookup
	roles     RoleLookup
	tokens    *token.Issuer
	bus       EventBus

	requireConfirmation bool
	confirmations       ConfirmationSender
	now                 func() time.Time
	logger              *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	outbox kafka.OutboxRepository,
	companies CompanyLookup,
	roles RoleLookup,
	tokens *token.Issuer,
	bus EventBus,
	opts ...Option,
) Service {
	s := &service{
		db:        db,
		repo:      repo,
		outbox:    outbox,
		companies: companies,
		roles:     roles,
		tokens:    tokens,
		bus:       bus,
		now:       time.Now,
		logger:    zap.L().Named("auth.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) SignIn(ctx context.Context, req SignInRequest) (SessionResponse, error) {
	cred, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionResponse{}, autherrors.ErrInvalidCredentials
		}
		return SessionResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.Password), []byte(req.Password)); err != nil {
		return SessionResponse{}, autherrors.ErrInvalidCredentials
	}

	if !cred.EmailVerified() {
		return SessionResponse{}, autherrors.ErrEmailNotConfirmed
	}

	resp, err := s.issueSession(ctx, cred)
	if err != nil {
		return SessionResponse{}, err
	}

	s.publish(ctx, events.SignedIn, cred)
	return resp, nil
}

func (s *service) SignUp(ctx context.Context, req SignUpRequest) (SessionResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return SessionResponse{}, autherrors.ErrInvalidCompany
	}
	if _, err := s.companies.GetByID(ctx, companyID.String()); err != nil {
		if apperror.CodeOf(err) == apperror.CodeNotFound || apperror.CodeOf(err) == apperror.CodeInvalidInput {
			return SessionResponse{}, autherrors.ErrInvalidCompany
		}
		return SessionResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return SessionResponse{}, err
	}

	cred := &Credential{
		ID:        uuid.New(),
		CompanyID: companyID,
		Email:     NormalizeEmail(req.Email),
		Password:  string(hashed),
		IsActive:  true,
	}
	if !s.requireConfirmation {
		confirmedAt := s.now().UTC()
		cred.EmailConfirmedAt = &confirmedAt
	}

	payload, err := json.Marshal(events.UserRegisteredEvent{
		EventType:  "user.registered",
		UserID:     cred.ID.String(),
		CompanyID:  companyID.String(),
		Email:      cred.Email,
		Name:       req.Name,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return SessionResponse{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, cred); err != nil {
			if isUniqueViolation(err) {
				return autherrors.ErrUserAlreadyRegistered
			}
			return err
		}

		return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     contextutil.GetRequestID(ctx),
			AggregateType: "user",
			AggregateID:   cred.ID.String(),
			EventType:     "user.registered",
			Topic:         events.UserRegisteredTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		})
	})
	if err != nil {
		log.Warn("sign up failed", zap.String("email", cred.Email), zap.Error(err))
		return SessionResponse{}, err
	}

	log.Info("user registered", zap.String("user_id", cred.ID.String()), zap.String("company_id", companyID.String()))

	if s.requireConfirmation && s.confirmations != nil {
		confirmToken, _, err := s.tokens.Issue(cred.ID.String(), companyID.String(), "", token.TypeConfirm)
		if err != nil {
			return SessionResponse{}, autherrors.ErrTokenGenerationFailed
		}
		if err := s.confirmations.SendConfirmation(ctx, cred.Email, confirmToken); err != nil {
			log.Error("send confirmation failed", zap.String("user_id", cred.ID.String()), zap.Error(err))
		}
	}

	// no tokens: the caller signs in once the account is usable
	return SessionResponse{
		UserID:        cred.ID.String(),
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified(),
		CompanyID:     companyID.String(),
	}, nil
}

func (s *service) SignOut(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return autherrors.ErrInvalidUserID
	}

	event := events.SessionEvent{Kind: events.SignedOut, UserID: id.String(), OccurredAt: s.now().UTC()}
	if err := s.bus.Publish(ctx, event); err != nil {
		return apperror.Wrap(err, apperror.CodeServiceUnavailable, "Failed to broadcast sign out", http.StatusServiceUnavailable)
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (SessionResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, token.TypeRefresh)
	if err != nil {
		return SessionResponse{}, autherrors.ErrInvalidRefreshToken
	}

	cred, err := s.credentialByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return SessionResponse{}, autherrors.ErrInvalidRefreshToken
		}
		return SessionResponse{}, err
	}

	resp, err := s.issueSession(ctx, cred)
	if err != nil {
		return SessionResponse{}, err
	}

	s.publish(ctx, events.TokenRefreshed, cred)
	return resp, nil
}

func (s *service) GetSession(ctx context.Context, userID string) (SessionResponse, error) {
	cred, err := s.credentialByID(ctx, userID)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{
		UserID:        cred.ID.String(),
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified(),
		CompanyID:     cred.CompanyID.String(),
	}, nil
}

func (s *service) ConfirmEmail(ctx context.Context, confirmToken string) (SessionResponse, error) {
	claims, err := s.tokens.Parse(confirmToken, token.TypeConfirm)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return SessionResponse{}, autherrors.ErrTokenExpired
		}
		return SessionResponse{}, autherrors.ErrInvalidToken
	}

	cred, err := s.credentialByID(ctx, claims.UserID)
	if err != nil {
		return SessionResponse{}, err
	}

	if !cred.EmailVerified() {
		now := s.now().UTC()
		if err := s.repo.MarkEmailConfirmed(ctx, cred.ID, now); err != nil {
			return SessionResponse{}, err
		}
		cred.EmailConfirmedAt = &now
		s.publish(ctx, events.UserUpdated, cred)
	}

	return SessionResponse{
		UserID:        cred.ID.String(),
		Email:         cred.Email,
		EmailVerified: true,
		CompanyID:     cred.CompanyID.String(),
	}, nil
}

func (s *service) DeleteUser(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return autherrors.ErrInvalidUserID
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return autherrors.ErrUserNotFound
		}
		return err
	}

	s.publish(ctx, events.UserDeleted, &Credential{ID: id})
	return nil
}

func (s *service) Subscribe(ctx context.Context, userID string) (EventStream, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, autherrors.ErrInvalidUserID
	}
	return s.bus.Subscribe(ctx, userID)
}

func (s *service) credentialByID(ctx context.Context, userID string) (*Credential, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, autherrors.ErrInvalidUserID
	}

	cred, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, err
	}
	return cred, nil
}

func (s *service) issueSession(ctx context.Context, cred *Credential) (SessionResponse, error) {
	role := s.resolveRole(ctx, cred.ID.String())

	access, expiresAt, err := s.tokens.Issue(cred.ID.String(), cred.CompanyID.String(), role, token.TypeAccess)
	if err != nil {
		return SessionResponse{}, autherrors.ErrTokenGenerationFailed
	}
	refresh, _, err := s.tokens.Issue(cred.ID.String(), cred.CompanyID.String(), role, token.TypeRefresh)
	if err != nil {
		return SessionResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return SessionResponse{
		UserID:        cred.ID.String(),
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified(),
		CompanyID:     cred.CompanyID.String(),
		AccessToken:   access,
		RefreshToken:  refresh,
		ExpiresAt:     &expiresAt,
	}, nil
}

func (s *service) resolveRole(ctx context.Context, userID string) string {
	if s.roles == nil {
		return defaultRole
	}
	role, err := s.roles.RoleOf(ctx, userID)
	if err != nil || role == "" {
		if err != nil {
			contextutil.GetLogger(ctx, s.logger).Warn("resolve role failed, using default",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		return defaultRole
	}
	return role
}

// publish is best effort.
func (s *service) publish(ctx context.Context, kind events.SessionEventKind, cred *Credential) {
	event := events.SessionEvent{
		Kind:          kind,
		UserID:        cred.ID.String(),
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified(),
		OccurredAt:    s.now().UTC(),
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("publish session event failed",
			zap.String("kind", string(kind)),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
