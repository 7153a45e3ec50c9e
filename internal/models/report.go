package models

import (
	"time"

	"vigilo/internal/domain"

	"gorm.io/gorm"
)

// TheftReport is the source event of the alert fan-out. Latitude/Longitude
// are always server-derived from the submitted lat/lon; the write API never
// accepts a geometry field. Expired state is derived from ExpiresAt at query
// time, never stored.
type TheftReport struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	Category       string         `gorm:"size:30;not null;index" json:"category"` // THEFT | STOLEN_VEHICLE | SUSPICIOUS
	VehicleNumber  string         `gorm:"size:32;not null" json:"vehicle_number"`
	Description    string         `gorm:"type:text" json:"description"`
	PhotoURL       string         `gorm:"size:512" json:"photo_url"`
	Latitude       float64        `gorm:"type:decimal(10,8);not null;index:idx_report_lat_lng" json:"latitude"`
	Longitude      float64        `gorm:"type:decimal(11,8);not null;index:idx_report_lat_lng" json:"longitude"`
	RadiusM        int            `gorm:"not null" json:"radius_m"`
	AlertMessage   string         `gorm:"size:512" json:"alert_message"`
	Status         string         `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"` // ACTIVE | FOUND | RESOLVED | FALSE_REPORT
	IdempotencyKey *string        `gorm:"uniqueIndex;size:64" json:"-"`                          // nil for legacy clients; unique when set
	ExpiresAt      time.Time      `gorm:"not null;index" json:"expires_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (TheftReport) TableName() string {
	return "theft_reports"
}

// IsExpired reports whether the report is past its visibility window at t.
func (r *TheftReport) IsExpired(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}

func (r *TheftReport) IsOwner(userID uint) bool { return r.UserID == userID }

// DefaultAlertMessage is used when the reporter supplies no custom message.
func (r *TheftReport) DefaultAlertMessage() string {
	switch r.Category {
	case domain.CategoryStolenVehicle:
		return "Stolen vehicle reported nearby: " + r.VehicleNumber + ". Keep an eye out."
	case domain.CategorySuspicious:
		return "Suspicious activity reported near you involving " + r.VehicleNumber + "."
	default:
		return "Vehicle theft reported near you: " + r.VehicleNumber + ". Keep an eye out."
	}
}
