package domain

import "time"

type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderOutlook Provider = "outlook"
)

func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderOutlook
}

type SendMode string

const (
	SendModeSend  SendMode = "send"
	SendModeDraft SendMode = "draft"
)

func (m SendMode) Valid() bool {
	return m == SendModeSend || m == SendModeDraft
}

// ConnectedMailbox is one mailbox an organization has linked over OAuth.
// Email is the primary key, so an address can belong to a single organization.
type ConnectedMailbox struct {
	Email          string     `json:"email" gorm:"primaryKey"`
	OrgID          string     `json:"org_id" gorm:"index;not null"`
	Provider       Provider   `json:"provider" gorm:"not null"`
	AccessToken    string     `json:"-" gorm:"type:text"`
	RefreshToken   string     `json:"-" gorm:"type:text"`
	TokenExpiry    *time.Time `json:"token_expiry,omitempty"`
	HistoryID      string     `json:"history_id,omitempty"`      // Gmail cursor, kept as the provider returned it
	SubscriptionID string     `json:"subscription_id,omitempty"` // Outlook cursor
	Expiration     int64      `json:"expiration"`                // push subscription expiry, epoch millis
	IsActive       bool       `json:"is_active" gorm:"not null"`
	SendMode       SendMode   `json:"send_mode" gorm:"not null;default:'draft'"`
	RevealAI       bool       `json:"reveal_ai" gorm:"column:reveal_ai;not null"`
	Purpose        string     `json:"purpose"`
	Frequency      *int       `json:"frequency,omitempty"` // minutes between replies, nil means manual
	LastOn         *time.Time `json:"last_on,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (ConnectedMailbox) TableName() string {
	return "connected"
}

// Cursor returns the provider-specific push cursor.
func (m *ConnectedMailbox) Cursor() string {
	if m.Provider == ProviderOutlook {
		return m.SubscriptionID
	}
	return m.HistoryID
}

// SetCursor stores a provider cursor verbatim in the column for its provider.
func (m *ConnectedMailbox) SetCursor(cursor string) {
	if m.Provider == ProviderOutlook {
		m.SubscriptionID = cursor
		return
	}
	m.HistoryID = cursor
}

// SettingsPatch carries the user-editable flags of a mailbox. Nil fields are left untouched.
type SettingsPatch struct {
	SendMode  *SendMode `json:"send_mode"`
	RevealAI  *bool     `json:"reveal_ai"`
	Purpose   *string   `json:"purpose"`
	Frequency *int      `json:"frequency"`
	IsActive  *bool     `json:"is_active"`
}
