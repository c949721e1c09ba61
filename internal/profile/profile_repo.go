package profile

import (
	"context"

	"the-work-standard/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=profile_repo.go -destination=mock/profile_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, companyID, id string) (*Profile, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Profile, error)
	// UpdateFields returns gorm.ErrRecordNotFound when no row in the tenant matches.
	UpdateFields(ctx context.Context, companyID, id string, fields map[string]any) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) withCompany(ctx context.Context, companyID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&Profile{}).
		Select("profiles.*, companies.name AS company_name").
		Joins("LEFT JOIN companies ON companies.id = profiles.company_id").
		Scopes(tenant.Company(companyID, "profiles"))
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Profile, error) {
	var p Profile
	err := r.withCompany(ctx, companyID).
		Where("profiles.id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Profile, error) {
	var profiles []Profile
	err := r.withCompany(ctx, companyID).
		Order("profiles.created_at DESC").
		Find(&profiles).Error
	return profiles, err
}

func (r *repository) UpdateFields(ctx context.Context, companyID, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&Profile{}).
		Scopes(tenant.Company(companyID)).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
