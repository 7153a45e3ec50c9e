package repository

import (
	"vigilo/internal/models"
	"vigilo/pkg/geo"

	"gorm.io/gorm"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Upsert(loc *models.UserLocation) error {
	return r.db.Save(loc).Error
}

func (r *LocationRepository) GetByUserID(userID uint) (*models.UserLocation, error) {
	var loc models.UserLocation
	err := r.db.Where("user_id = ?", userID).First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// NearbyUser is one range-query hit: who, how far, and where to push.
type NearbyUser struct {
	UserID    uint   `json:"user_id"`
	DistanceM int    `json:"distance_m"`
	FCMToken  string `json:"-"`
}

// UsersWithinRadius returns every user with a stored, sharing-enabled location
// whose great-circle distance to the center is <= radiusM, excluding
// excludeUserID. Distance is Haversine (Earth radius 6,371,000 m) computed in
// SQL so the whole range query is one index-assisted statement: the composite
// lat/lng index serves the bounding-box pre-filter, HAVING applies the exact
// distance. Users with no location row never match; an empty result is not an
// error.
func (r *LocationRepository) UsersWithinRadius(lat, lng float64, radiusM int, excludeUserID uint, verifiedOnly bool) ([]NearbyUser, error) {
	latDelta := geo.BoundingDelta(float64(radiusM))
	lngDelta := geo.BoundingDeltaLng(lat, float64(radiusM))
	latMin, latMax := lat-latDelta, lat+latDelta
	lngMin, lngMax := lng-lngDelta, lng+lngDelta

	// LEAST guards ACOS against rounding just above 1.0 for coincident points.
	distanceExpr := `ROUND(6371000 * ACOS(LEAST(1.0,
		COS(RADIANS(?)) * COS(RADIANS(ul.latitude)) * COS(RADIANS(ul.longitude) - RADIANS(?)) +
		SIN(RADIANS(?)) * SIN(RADIANS(ul.latitude)))))`

	query := r.db.Table("user_locations ul").
		Select("u.id AS user_id, u.fcm_token, "+distanceExpr+" AS distance_m", lat, lng, lat).
		Joins("INNER JOIN users u ON u.id = ul.user_id AND u.deleted_at IS NULL").
		Where("ul.deleted_at IS NULL AND ul.is_sharing_enabled = ?", true).
		Where("ul.latitude BETWEEN ? AND ? AND ul.longitude BETWEEN ? AND ?", latMin, latMax, lngMin, lngMax)

	if excludeUserID != 0 {
		query = query.Where("u.id != ?", excludeUserID)
	}
	if verifiedOnly {
		query = query.Where("u.is_verified = ?", true)
	}

	var results []NearbyUser
	err := query.Having("distance_m <= ?", radiusM).
		Order("distance_m ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
