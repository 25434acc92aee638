package domain

import (
	"time"

	"github.com/google/uuid"
)

// Click представляет визит по сокращенной ссылке
type Click struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LinkID      uuid.UUID `gorm:"type:uuid;column:link_id;not null;index" json:"link_id"`
	UserID      uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"` // владелец ссылки (денормализация для выборок)
	IPAddress   *string   `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	UserAgent   string    `gorm:"column:user_agent;type:text" json:"user_agent"`
	Referer     *string   `gorm:"column:referer;size:500" json:"referer,omitempty"`
	Country     *string   `gorm:"column:country;size:2" json:"country,omitempty"` // ISO код страны
	Region      *string   `gorm:"column:region;size:100" json:"region,omitempty"`
	City        *string   `gorm:"column:city;size:100" json:"city,omitempty"`
	DeviceType  string    `gorm:"column:device_type;size:20;not null;default:desktop" json:"device_type"`
	OSName      string    `gorm:"column:os_name;size:50;not null;default:Unknown" json:"os_name"`
	BrowserName string    `gorm:"column:browser_name;size:50;not null;default:Unknown" json:"browser_name"`
	IsUnique    bool      `gorm:"column:is_unique;not null;default:true" json:"is_unique"` // уникальный визит с IP за 24 часа, фиксируется при записи
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	// Relationships
	Link *Link `gorm:"foreignKey:LinkID" json:"link,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (Click) TableName() string {
	return "clicks"
}

// ClicksPerDay строка агрегата кликов по дням
type ClicksPerDay struct {
	Day    time.Time `gorm:"column:day"`
	Clicks int64     `gorm:"column:clicks"`
}

// DimensionStat строка агрегата кликов по измерению (ОС, тип устройства)
type DimensionStat struct {
	Name      string `gorm:"column:name"`
	Clicks    int64  `gorm:"column:clicks"`
	UniqueIPs int64  `gorm:"column:unique_ips"`
}
