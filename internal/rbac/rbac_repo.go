package rbac

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	// RoleOf returns "" when the user has no profile yet.
	RoleOf(ctx context.Context, userID string) (string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) RoleOf(ctx context.Context, userID string) (string, error) {
	var roles []string
	err := r.db.WithContext(ctx).
		Table("profiles").
		Where("id = ?", userID).
		Where("deleted_at IS NULL").
		Limit(1).
		Pluck("role", &roles).Error
	if err != nil || len(roles) == 0 {
		return "", err
	}
	return roles[0], nil
}
