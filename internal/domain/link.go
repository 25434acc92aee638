package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link представляет сокращенную ссылку
type Link struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	LongURL      string         `gorm:"column:long_url;type:text;not null" json:"long_url"`
	ShortCode    string         `gorm:"column:short_code;size:10;uniqueIndex;not null" json:"short_code"`
	CustomAlias  *string        `gorm:"column:custom_alias;size:50;uniqueIndex" json:"custom_alias,omitempty"`
	Topic        *string        `gorm:"column:topic;size:50;index" json:"topic,omitempty"`
	ClickCount   int64          `gorm:"column:click_count;not null;default:0" json:"click_count"`
	UniqueClicks int64          `gorm:"column:unique_clicks;not null;default:0" json:"unique_clicks"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	ExpiresAt    *time.Time     `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`

	// Relationships
	Clicks []Click `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"clicks,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (Link) TableName() string {
	return "links"
}

// Alias возвращает публичный алиас ссылки (кастомный алиас приоритетнее кода)
func (l *Link) Alias() string {
	if l.CustomAlias != nil && *l.CustomAlias != "" {
		return *l.CustomAlias
	}
	return l.ShortCode
}

// IsExpired проверяет, истек ли срок действия ссылки
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
