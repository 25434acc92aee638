package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет пользователя сервиса
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string     `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"column:name;size:100" json:"name"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Links []Link `gorm:"foreignKey:UserID" json:"links,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}
