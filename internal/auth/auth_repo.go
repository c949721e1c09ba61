package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=auth_repo.go -destination=mock/auth_repo_mock.go -package=mock

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cred *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	MarkEmailConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, cred *Credential) error {
	cred.Email = NormalizeEmail(cred.Email)
	return r.db.WithContext(ctx).Create(cred).Error
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	var cred Credential
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		Where("is_active = ?", true).
		First(&cred).Error
	return &cred, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	var cred Credential
	err := r.db.WithContext(ctx).First(&cred, "id = ?", id).Error
	return &cred, err
}

func (r *repository) MarkEmailConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Credential{}).
		Where("id = ?", id).
		Where("email_confirmed_at IS NULL").
		Update("email_confirmed_at", at)
	return res.Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Credential{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
