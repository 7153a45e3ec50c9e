package repository

import (
	"vigilo/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	return r.firstWhere("id = ?", id)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.firstWhere("email = ?", email)
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.firstWhere("username = ?", username)
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// UpdateFCMToken stores the device token push fan-out delivers to, without
// rewriting the rest of the row.
func (r *UserRepository) UpdateFCMToken(userID uint, token string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) firstWhere(query string, args ...interface{}) (*models.User, error) {
	var u models.User
	if err := r.db.Where(query, args...).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
