package domain

import "time"

// EmailLog records one inbound email and the reply the pipeline produced for it.
type EmailLog struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OrgID     string    `json:"org_id" gorm:"index:idx_email_logs_org_created;not null"`
	Email     string    `json:"email" gorm:"index;not null"` // connected mailbox that received the message
	Recipient string    `json:"recipient" gorm:"not null"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Status    string    `json:"status" gorm:"not null;default:'sent'"` // sent, failed, draft or scheduled
	ThreadID  string    `json:"thread_id"`
	MessageID string    `json:"message_id"`
	Tokens    int       `json:"tokens" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_email_logs_org_created"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Escalation is a message the pipeline handed to a human instead of answering.
type Escalation struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OrgID          string    `json:"org_id" gorm:"index:idx_escalations_org_created;not null"`
	Archived       bool      `json:"archived" gorm:"not null"`
	Summary        string    `json:"summary" gorm:"type:text;not null"`
	Subject        string    `json:"subject" gorm:"not null"`
	Account        string    `json:"account" gorm:"not null"`
	Recipient      string    `json:"recipient" gorm:"not null"`
	ThreadID       string    `json:"thread_id" gorm:"not null"`
	Category       string    `json:"category" gorm:"default:'Other'"`
	Priority       string    `json:"priority" gorm:"default:'low'"` // low, medium or high
	EscalationLink string    `json:"escalation_link,omitempty"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_escalations_org_created"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PurgeResult reports how many rows a purge removed.
type PurgeResult struct {
	Logs        int64 `json:"logs"`
	Escalations int64 `json:"escalations"`
}
