package models

import (
	"time"

	"gorm.io/gorm"
)

// Confirmation links a report to a confirming user. The unique pair index
// closes the race between concurrent submissions from the same user; the
// application never checks for duplicates itself.
type Confirmation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ReportID  uint           `gorm:"not null;index:idx_confirmation_pair,unique" json:"report_id"`
	UserID    uint           `gorm:"not null;index:idx_confirmation_pair,unique" json:"user_id"`
	Type      string         `gorm:"size:20;not null" json:"type"` // SEEN | FALSE | CALL_POLICE
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Report TheftReport `gorm:"foreignKey:ReportID" json:"-"`
	User   User        `gorm:"foreignKey:UserID" json:"-"`
}

func (Confirmation) TableName() string {
	return "confirmations"
}
