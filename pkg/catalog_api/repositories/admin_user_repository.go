package repositories

import (
	"context"
	"errors"

	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"gorm.io/gorm"
)

type AdminUserRepository interface {
	FindByID(ctx context.Context, id int) (*models.AdminUser, error)
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error)
	UpdateUser(ctx context.Context, id int, fields map[string]interface{}) error
	SaveUser(ctx context.Context, u *models.AdminUser) error
}

type adminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) FindByID(ctx context.Context, id int) (*models.AdminUser, error) {
	var u models.AdminUser
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *adminUserRepository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *adminUserRepository) UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *adminUserRepository) UpdateUser(ctx context.Context, id int, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Updates(fields).Error
}

func (r *adminUserRepository) SaveUser(ctx context.Context, u *models.AdminUser) error {
	return r.db.WithContext(ctx).Save(u).Error
}
