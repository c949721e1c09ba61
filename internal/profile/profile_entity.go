package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile shares its primary key with the credential in users.
type Profile struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	Name      string         `gorm:"column:name;type:varchar(255)"`
	Email     string         `gorm:"column:email;type:text;not null"`
	Role      string         `gorm:"column:role;type:varchar(20);not null;default:user"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`

	// filled from the companies join, never written
	CompanyName string `gorm:"column:company_name;->;-:migration"`
}

func (Profile) TableName() string {
	return "profiles"
}
