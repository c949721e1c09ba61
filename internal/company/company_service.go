package company

import (
	"context"
	"errors"
	"strings"

	companyerrors "the-work-standard/internal/company/errors"
	"the-work-standard/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=company_service.go -destination=mock/company_service_mock.go -package=mock
type Service interface {
	GetByID(ctx context.Context, id string) (*CompanyResponse, error)
	VerifyCode(ctx context.Context, code string) (VerifyCodeResponse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*CompanyResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, companyerrors.ErrInvalidCompanyID
	}

	comp, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, companyerrors.ErrCompanyNotFound
		}
		return nil, err
	}

	return &CompanyResponse{ID: comp.ID.String(), Name: comp.Name, Code: comp.Code}, nil
}

// VerifyCode reports whether code names an active company. An unknown code
// is a negative answer, not an error.
func (s *service) VerifyCode(ctx context.Context, code string) (VerifyCodeResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return VerifyCodeResponse{IsValid: false}, nil
	}

	comp, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			contextutil.GetLogger(ctx, nil).Info("company code verification failed", zap.String("code", code))
			return VerifyCodeResponse{IsValid: false}, nil
		}
		return VerifyCodeResponse{}, err
	}

	return VerifyCodeResponse{
		IsValid:     true,
		CompanyID:   comp.ID.String(),
		CompanyName: comp.Name,
	}, nil
}
