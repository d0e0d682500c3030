package auth

import (
	"time"

	"github.com/google/uuid"
)

const (
	UserRoleCoach  = "coach"
	UserRoleClient = "client"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name  string    `gorm:"column:name;not null;default:''" json:"name"`
	Role  string    `gorm:"column:role;not null;index" json:"role"`

	// bcrypt hash; never serialized.
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
