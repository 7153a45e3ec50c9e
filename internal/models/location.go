package models

import (
	"time"

	"gorm.io/gorm"
)

// UserLocation stores lat/lng with a composite index used by the
// bounding-box pre-filter of the range query. Separate decimal columns
// keep the Haversine SQL portable across MySQL versions.
type UserLocation struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Latitude         float64        `gorm:"type:decimal(10,8);not null;index:idx_location_lat_lng" json:"-"`
	Longitude        float64        `gorm:"type:decimal(11,8);not null;index:idx_location_lat_lng" json:"-"`
	AccuracyMeters   float64        `gorm:"type:decimal(8,2)" json:"accuracy_meters"`
	IsSharingEnabled bool           `gorm:"default:true" json:"is_sharing_enabled"`
	LastUpdatedAt    time.Time      `gorm:"not null;index" json:"last_updated_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserLocation) TableName() string {
	return "user_locations"
}
