package domain

import "time"

// ClickEvent представляет один переход по короткой ссылке. Записи только
// добавляются и никогда не обновляются.
type ClickEvent struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	URLID     int64     `gorm:"column:url_id;not null;index" json:"url_id"`
	ClickedAt time.Time `gorm:"column:clicked_at;not null;index" json:"clicked_at"`
	IPAddress string    `gorm:"column:ip_address;size:45" json:"ip_address"`
	UserAgent string    `gorm:"column:user_agent;type:text" json:"user_agent"`
	Referer   *string   `gorm:"column:referer;type:text" json:"referer,omitempty"`

	DeviceType     *string `gorm:"column:device_type;size:20" json:"device_type,omitempty"` // 'desktop', 'mobile', 'tablet', 'bot'
	Browser        *string `gorm:"column:browser;size:50" json:"browser,omitempty"`
	BrowserVersion *string `gorm:"column:browser_version;size:50" json:"browser_version,omitempty"`
	OS             *string `gorm:"column:os;size:50" json:"os,omitempty"`
	OSVersion      *string `gorm:"column:os_version;size:50" json:"os_version,omitempty"`

	Country *string `gorm:"column:country;size:100" json:"country,omitempty"`
	Region  *string `gorm:"column:region;size:100" json:"region,omitempty"`
	City    *string `gorm:"column:city;size:100" json:"city,omitempty"`

	// Вычисляется агрегацией, при записи всегда true
	IsUnique bool `gorm:"column:is_unique;not null;default:true" json:"is_unique"`

	Link *Link `gorm:"foreignKey:URLID" json:"-"`
}

// TableName возвращает название таблицы для GORM
func (ClickEvent) TableName() string {
	return "url_clicks"
}
