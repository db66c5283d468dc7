package repositories

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"gorm.io/gorm"
)

type VehicleRepository interface {
	ListVehicles(ctx context.Context, p *models.ListVehiclesParams) ([]models.Vehicle, models.Pagination, error)
	PublicVehicles(ctx context.Context, p *models.PublicVehiclesParams) ([]models.Vehicle, error)
	GetVehicleByID(ctx context.Context, id int) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, v *models.Vehicle) error
	UpdateVehicle(ctx context.Context, id int, fields map[string]interface{}) error
	DeleteVehicle(ctx context.Context, id int) error
	VehicleIDs(ctx context.Context) ([]int, error)

	ReplaceFeatures(ctx context.Context, vehicleID int, features []string) error

	GetImages(ctx context.Context, vehicleID int) ([]models.VehicleImage, error)
	ImagesByVehicleIDs(ctx context.Context, ids []int) ([]models.VehicleImage, error)
	InsertImages(ctx context.Context, images []models.VehicleImage) error
	ReplaceImages(ctx context.Context, vehicleID int, images []models.VehicleImage) error
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

// sortColumns whitelists what the admin table header can sort by.
var sortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"brand":      "brand",
	"year":       "year",
	"price":      "price",
	"created_at": "created_at",
	"spotlight":  "spotlight",
}

func (r *vehicleRepository) ListVehicles(ctx context.Context, p *models.ListVehiclesParams) ([]models.Vehicle, models.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Vehicle{})

	if p.Search != nil {
		if term := strings.TrimSpace(*p.Search); term != "" {
			like := "%" + strings.ToLower(term) + "%"
			q = q.Where(
				"CAST(id AS TEXT) LIKE ? OR LOWER(name) LIKE ? OR LOWER(COALESCE(brand, '')) LIKE ?",
				like, like, like,
			)
		}
	}

	if p.Status != nil {
		switch strings.TrimSpace(*p.Status) {
		case "available":
			q = q.Where("available = ?", true)
		case "unavailable":
			q = q.Where("available = ?", false)
		case "spotlight":
			q = q.Where("spotlight = ?", true)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, err
	}

	column, ok := sortColumns[p.Sort]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.Order, "asc") {
		dir = "ASC"
	}

	// Equally-sorted rows fall back to recency so the order stays stable,
	// most importantly when sorting by the spotlight flag.
	q = q.Order(column + " " + dir).
		Order("updated_at DESC").
		Order("created_at DESC")

	offset := (p.Page - 1) * p.PerPage
	var vehicles []models.Vehicle
	if err := q.Offset(offset).Limit(p.PerPage).Find(&vehicles).Error; err != nil {
		return nil, models.Pagination{}, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(p.PerPage)))
	pagination := models.Pagination{
		CurrentPage:    p.Page,
		RecordsPerPage: p.PerPage,
		TotalPages:     totalPages,
		TotalRecords:   int(total),
	}
	if p.Page < totalPages {
		next := p.Page + 1
		pagination.Next = &next
	}
	if p.Page > 1 {
		prev := p.Page - 1
		pagination.Previous = &prev
	}

	return vehicles, pagination, nil
}

func (r *vehicleRepository) PublicVehicles(ctx context.Context, p *models.PublicVehiclesParams) ([]models.Vehicle, error) {
	q := r.db.WithContext(ctx).Model(&models.Vehicle{}).Order("created_at DESC")

	if p.Id != nil {
		q = q.Where("id = ?", *p.Id)
	}
	if p.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	if p.SpotlightOnly {
		q = q.Where("spotlight = ?", true)
	}
	if p.Fuel != nil && *p.Fuel != "" {
		q = q.Where("fuel = ?", *p.Fuel)
	}
	if p.FuelIlike != nil && *p.FuelIlike != "" {
		q = q.Where("LOWER(COALESCE(fuel, '')) LIKE ?", "%"+strings.ToLower(*p.FuelIlike)+"%")
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}

	var vehicles []models.Vehicle
	if err := q.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) GetVehicleByID(ctx context.Context, id int) (*models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Features", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vehicleRepository) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vehicleRepository) UpdateVehicle(ctx context.Context, id int, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&models.Vehicle{}).Where("id = ?", id).Updates(fields).Error
}

func (r *vehicleRepository) DeleteVehicle(ctx context.Context, id int) error {
	// Feature and image rows go with the vehicle via the FK cascade; sqlite
	// test databases rely on gorm's Select-based cascade instead.
	return r.db.WithContext(ctx).Select("Features", "Images").Delete(&models.Vehicle{Id: id}).Error
}

func (r *vehicleRepository) VehicleIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *vehicleRepository) ReplaceFeatures(ctx context.Context, vehicleID int, features []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ?", vehicleID).Delete(&models.VehicleFeature{}).Error; err != nil {
			return err
		}
		if len(features) == 0 {
			return nil
		}
		rows := make([]models.VehicleFeature, len(features))
		for i, f := range features {
			rows[i] = models.VehicleFeature{VehicleID: vehicleID, Feature: f, DisplayOrder: i}
		}
		return tx.Create(&rows).Error
	})
}

func (r *vehicleRepository) GetImages(ctx context.Context, vehicleID int) ([]models.VehicleImage, error) {
	var images []models.VehicleImage
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("display_order ASC").
		Find(&images).Error
	return images, err
}

func (r *vehicleRepository) ImagesByVehicleIDs(ctx context.Context, ids []int) ([]models.VehicleImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var images []models.VehicleImage
	err := r.db.WithContext(ctx).
		Where("vehicle_id IN ?", ids).
		Order("vehicle_id ASC").
		Order("display_order ASC").
		Find(&images).Error
	return images, err
}

func (r *vehicleRepository) InsertImages(ctx context.Context, images []models.VehicleImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

// ReplaceImages rewrites the full ordered image index of a vehicle and
// refreshes updated_at in the same transaction.
func (r *vehicleRepository) ReplaceImages(ctx context.Context, vehicleID int, images []models.VehicleImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ?", vehicleID).Delete(&models.VehicleImage{}).Error; err != nil {
			return err
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Vehicle{}).Where("id = ?", vehicleID).
			Update("updated_at", time.Now()).Error
	})
}
