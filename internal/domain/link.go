package domain

import "time"

// Link представляет сокращенную ссылку. UserID == nil означает анонимную
// (demo) ссылку, которую можно присвоить позже.
type Link struct {
	ID          int64   `gorm:"primaryKey;column:id" json:"id"`
	ShortCode   string  `gorm:"column:short_code;size:50;not null;uniqueIndex" json:"short_code"`
	CustomAlias *string `gorm:"column:custom_alias;size:50" json:"custom_alias,omitempty"`
	OriginalURL string  `gorm:"column:original_url;type:text;not null" json:"original_url"`
	UserID      *int64  `gorm:"column:user_id;index" json:"user_id,omitempty"`

	// Ограничения на переход
	IsActive   bool       `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	ExpiryDate *time.Time `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
	ClickLimit *int64     `gorm:"column:click_limit" json:"click_limit,omitempty"`
	Password   *string    `gorm:"column:password" json:"-"` // хранится, но не проверяется при редиректе

	// Метаданные страницы
	Title       *string `gorm:"column:title;size:500" json:"title,omitempty"`
	Description *string `gorm:"column:description;type:text" json:"description,omitempty"`
	FaviconURL  *string `gorm:"column:favicon_url;type:text" json:"favicon_url,omitempty"`
	QRCodeURL   *string `gorm:"column:qr_code_url;type:text" json:"qr_code_url,omitempty"`

	CampaignID    *int64         `gorm:"column:campaign_id" json:"campaign_id,omitempty"`
	UTMParameters *UTMParameters `gorm:"column:utm_parameters;serializer:json" json:"utm_parameters,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName возвращает название таблицы для GORM
func (Link) TableName() string {
	return "urls"
}

// IsExpired сообщает, истек ли срок действия ссылки на момент now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiryDate != nil && now.After(*l.ExpiryDate)
}

// IsOwned сообщает, есть ли у ссылки владелец.
func (l *Link) IsOwned() bool {
	return l.UserID != nil
}

// UTMParameters default campaign tags stored with a link.
type UTMParameters struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// UTMKeys перечисляет параметры, которые переносятся из запроса в целевой URL.
var UTMKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// DemoLinkEntry анонимная ссылка, живущая только в памяти процесса.
// Теряется при перезапуске.
type DemoLinkEntry struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	Title       string    `json:"title,omitempty"`
	QRCodeURL   string    `json:"qr_code_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}
