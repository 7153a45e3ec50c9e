package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationAlert is one fan-out row per eligible recipient per report.
// The unique (report_id, recipient_id) pair makes fan-out retries idempotent:
// the batch insert skips rows that already exist.
type NotificationAlert struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ReportID    uint           `gorm:"not null;index:idx_alert_pair,unique" json:"report_id"`
	RecipientID uint           `gorm:"not null;index:idx_alert_pair,unique;index" json:"recipient_id"`
	SenderID    uint           `gorm:"not null;index" json:"sender_id"`
	Type        string         `gorm:"size:30;not null" json:"type"`
	Message     string         `gorm:"size:512;not null" json:"message"`
	DistanceM   int            `gorm:"not null" json:"distance_m"` // recipient to report center at send time
	Status      string         `gorm:"size:20;not null;default:'PENDING';index" json:"status"` // SENT | FAILED | PENDING
	ReadAt      *time.Time     `json:"read_at"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Report    TheftReport `gorm:"foreignKey:ReportID" json:"-"`
	Recipient User        `gorm:"foreignKey:RecipientID" json:"-"`
	Sender    User        `gorm:"foreignKey:SenderID" json:"-"`
}

func (NotificationAlert) TableName() string {
	return "notification_alerts"
}
