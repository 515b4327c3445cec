package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringArray stores a string slice as a JSON text column
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Contains reports whether value is in the array. It is a plain linear scan.
func (a StringArray) Contains(value string) bool {
	for _, v := range a {
		if v == value {
			return true
		}
	}
	return false
}

// ListName names one of the configuration arrays on the organization row.
type ListName string

const (
	ListBlacklistEmails    ListName = "blacklist_emails"
	ListBlacklistDomains   ListName = "blacklist_domains"
	ListNotificationEmails ListName = "notification_emails"
)

func (l ListName) Valid() bool {
	switch l {
	case ListBlacklistEmails, ListBlacklistDomains, ListNotificationEmails:
		return true
	}
	return false
}

// Organization is a tenant. The three arrays are read by the inbound reply
// pipeline, which skips blacklisted senders and alerts notification recipients.
type Organization struct {
	ID                 string      `json:"id" gorm:"primaryKey"`
	Name               string      `json:"name" gorm:"not null"`
	Email              string      `json:"email" gorm:"not null"`
	OwnerID            string      `json:"owner_id" gorm:"index;not null"`
	Tokens             int         `json:"tokens" gorm:"not null;default:0"`
	MaxTokens          int         `json:"max_tokens" gorm:"not null;default:0"`
	BlacklistEmails    StringArray `json:"blacklist_emails" gorm:"type:text"`
	BlacklistDomains   StringArray `json:"blacklist_domains" gorm:"type:text"`
	NotificationEmails StringArray `json:"notification_emails" gorm:"type:text"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// List returns the array stored under name.
func (o *Organization) List(name ListName) StringArray {
	var list StringArray
	switch name {
	case ListBlacklistEmails:
		list = o.BlacklistEmails
	case ListBlacklistDomains:
		list = o.BlacklistDomains
	case ListNotificationEmails:
		list = o.NotificationEmails
	}
	if list == nil {
		return StringArray{}
	}
	return list
}

// Configuration is the reply configuration of an organization.
type Configuration struct {
	BlacklistEmails    StringArray `json:"blacklist_emails"`
	BlacklistDomains   StringArray `json:"blacklist_domains"`
	NotificationEmails StringArray `json:"notification_emails"`
}
