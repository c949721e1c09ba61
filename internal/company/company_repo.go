package company

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=company_repo.go -destination=mock/company_repo_mock.go -package=mock
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetByCode(ctx context.Context, code string) (*Company, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	var company Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// GetByCode only matches active companies.
func (r *repository) GetByCode(ctx context.Context, code string) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

const codeCachePrefix = "company:code:"

// cachedRepository serves GetByCode from Redis. Misses are not cached so a
// newly created company is visible at once; a deactivated one may linger
// for up to ttl.
type cachedRepository struct {
	Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedRepository(next Repository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedRepository{
		Repository: next,
		rdb:        rdb,
		ttl:        ttl,
		logger:     logger.Named("company.cache"),
	}
}

type cachedCompany struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
}

func (r *cachedRepository) GetByCode(ctx context.Context, code string) (*Company, error) {
	key := codeCachePrefix + strings.ToLower(code)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedCompany
		if jsonErr := json.Unmarshal(raw, &c); jsonErr == nil {
			return &Company{ID: c.ID, Name: c.Name, Code: c.Code, IsActive: true}, nil
		}
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("company cache read failed", zap.Error(err))
	}

	comp, err := r.Repository.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(cachedCompany{ID: comp.ID, Name: comp.Name, Code: comp.Code})
	if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("company cache write failed", zap.Error(err))
	}
	return comp, nil
}
