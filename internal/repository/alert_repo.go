package repository

import (
	"vigilo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// BatchCreate inserts all alerts as one multi-row write. Rows that collide on
// the (report_id, recipient_id) unique index are skipped, so retrying fan-out
// for the same report never duplicates delivery. Returns how many rows were
// actually inserted.
func (r *AlertRepository) BatchCreate(alerts []models.NotificationAlert) (int64, error) {
	if len(alerts) == 0 {
		return 0, nil
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&alerts)
	return res.RowsAffected, res.Error
}

// SetDeliveryStatus records the push outcome for one fan-out row, addressed
// by the unique pair rather than the generated id.
func (r *AlertRepository) SetDeliveryStatus(reportID, recipientID uint, status string) error {
	return r.db.Model(&models.NotificationAlert{}).
		Where("report_id = ? AND recipient_id = ?", reportID, recipientID).
		Update("status", status).Error
}

func (r *AlertRepository) ListByRecipient(recipientID uint, limit, offset int) ([]models.NotificationAlert, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []models.NotificationAlert
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// MarkRead is recipient-gated: a user can only mark alerts addressed to them.
func (r *AlertRepository) MarkRead(id, recipientID uint) (int64, error) {
	res := r.db.Model(&models.NotificationAlert{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", gorm.Expr("NOW()"))
	return res.RowsAffected, res.Error
}

func (r *AlertRepository) UnreadCount(recipientID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.NotificationAlert{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).Count(&c).Error
	return c, err
}
