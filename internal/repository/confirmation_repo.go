package repository

import (
	"errors"
	"fmt"

	"vigilo/internal/domain"
	"vigilo/internal/models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type ConfirmationRepository struct {
	db *gorm.DB
}

func NewConfirmationRepository(db *gorm.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

// Create inserts a confirmation. The unique (report_id, user_id) index closes
// the duplicate race at the store; a duplicate-key error surfaces as
// domain.ErrConflict.
func (r *ConfirmationRepository) Create(conf *models.Confirmation) error {
	err := r.db.Create(conf).Error
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return fmt.Errorf("%w: confirmation for report %d by user %d", domain.ErrConflict, conf.ReportID, conf.UserID)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: confirmation for report %d by user %d", domain.ErrConflict, conf.ReportID, conf.UserID)
	}
	return err
}

func (r *ConfirmationRepository) ListByReport(reportID uint) ([]models.Confirmation, error) {
	var list []models.Confirmation
	err := r.db.Where("report_id = ?", reportID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *ConfirmationRepository) CountByReport(reportID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Confirmation{}).Where("report_id = ?", reportID).Count(&c).Error
	return c, err
}
