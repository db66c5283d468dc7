package models

import "time"

// MaxImagesPerVehicle is the hard cap on image rows per vehicle. The staging
// side enforces it locally and the server re-validates on every write.
const MaxImagesPerVehicle = 10

type Vehicle struct {
	Id           int     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name         string  `gorm:"column:name;not null" json:"name"`
	Brand        *string `gorm:"column:brand" json:"brand"`
	Price        *string `gorm:"column:price" json:"price"`
	Year         *string `gorm:"column:year" json:"year"`
	Fuel         *string `gorm:"column:fuel" json:"fuel"`
	Transmission *string `gorm:"column:transmission" json:"transmission"`
	Km           *string `gorm:"column:km" json:"km"`
	Color        *string `gorm:"column:color" json:"color"`
	Plate        *string `gorm:"column:placa" json:"placa"`
	Doors        *string `gorm:"column:doors" json:"doors"`
	Badge        *string `gorm:"column:badge" json:"badge"`
	Description  *string `gorm:"column:description" json:"description"`
	Spotlight    bool    `gorm:"column:spotlight" json:"spotlight"`
	Available    bool    `gorm:"column:available" json:"available"`

	Features []VehicleFeature `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"features,omitempty"`
	Images   []VehicleImage   `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"images,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

type VehicleFeature struct {
	Id           int    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	VehicleID    int    `gorm:"column:vehicle_id;index" json:"-"`
	Feature      string `gorm:"column:feature" json:"feature"`
	DisplayOrder int    `gorm:"column:display_order" json:"display_order"`
}

func (VehicleFeature) TableName() string { return "vehicle_features" }

type VehicleImage struct {
	Id           int        `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	VehicleID    int        `gorm:"column:vehicle_id;index" json:"-"`
	ImageURL     string     `gorm:"column:image_url" json:"image_url"`
	ImageMeta    *ImageMeta `gorm:"column:image_meta;type:jsonb" json:"image_meta"`
	DisplayOrder int        `gorm:"column:display_order" json:"display_order"`
}

func (VehicleImage) TableName() string { return "vehicle_images" }

// StableKey identifies the stored object behind this row: the storage path
// from the metadata when present, otherwise the public URL (legacy rows).
func (i VehicleImage) StableKey() string {
	return StableImageKey(i.ImageMeta, i.ImageURL)
}

func StableImageKey(meta *ImageMeta, url string) string {
	if meta != nil && meta.Path != "" {
		return meta.Path
	}
	return url
}
