package rbac

import (
	"context"
	"strings"

	"the-work-standard/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	RoleOf(ctx context.Context, userID string) (string, error)
	Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer) Service {
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   zap.L().Named("rbac.service"),
	}
}

// RoleOf reads the role from storage on every call so a role change applies
// to tokens issued before it.
func (s *service) RoleOf(ctx context.Context, userID string) (string, error) {
	role, err := s.repo.RoleOf(ctx, userID)
	if err != nil {
		return "", err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return role, nil
}

func (s *service) Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error) {
	role, err := s.RoleOf(ctx, req.UserID)
	if err != nil {
		return false, err
	}

	allowed, err := s.enforcer.Enforce(role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("user_id", req.UserID),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("user_id", req.UserID),
		zap.String("company_id", req.CompanyID),
		zap.String("role", role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}
