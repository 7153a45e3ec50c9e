package repository

import (
	"errors"
	"time"

	"vigilo/internal/models"

	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(report *models.TheftReport) error {
	return r.db.Create(report).Error
}

func (r *ReportRepository) GetByID(id uint) (*models.TheftReport, error) {
	var report models.TheftReport
	err := r.db.First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByIdempotencyKey returns the report created under key, or nil when the
// key has not been seen. Used to short-circuit duplicate submissions.
func (r *ReportRepository) GetByIdempotencyKey(key string) (*models.TheftReport, error) {
	var report models.TheftReport
	err := r.db.Where("idempotency_key = ?", key).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListActive returns unexpired reports, newest first. Expiry is evaluated at
// query time against now; nothing flips a stored flag. Status is orthogonal:
// a RESOLVED report stays listed until its window closes.
func (r *ReportRepository) ListActive(category string, now time.Time, limit, offset int) ([]models.TheftReport, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.Where("expires_at > ?", now)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var list []models.TheftReport
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// UpdateStatus sets the status of a report owned by userID. Returns the
// number of rows touched; zero means the report is missing or not theirs.
func (r *ReportRepository) UpdateStatus(id, userID uint, status string) (int64, error) {
	res := r.db.Model(&models.TheftReport{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *ReportRepository) ListByOwner(userID uint, limit, offset int) ([]models.TheftReport, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []models.TheftReport
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
