package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credential is the login identity. The profile row shares its ID.
type Credential struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Email            string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password         string     `gorm:"type:varchar(255);not null"`
	EmailConfirmedAt *time.Time `gorm:"type:timestamptz"`
	IsActive         bool       `gorm:"default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (Credential) TableName() string {
	return "users"
}

func (c *Credential) EmailVerified() bool {
	return c.EmailConfirmedAt != nil
}
