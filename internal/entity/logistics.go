package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle types
const (
	VehicleTypeTruck = "TRUCK"
	VehicleTypeVan   = "VAN"
	VehicleTypeCar   = "CAR"
)

// Driver is a DRIVER user's operational record.
type Driver struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	UserID        string    `json:"user_id" gorm:"size:32;not null;uniqueIndex"`
	LicenseNumber string    `json:"license_number" gorm:"size:100;not null;uniqueIndex"`
	IsAvailable   bool      `json:"is_available" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Driver) TableName() string {
	return "drivers"
}

type Vehicle struct {
	ID                 string          `json:"id" gorm:"primaryKey;size:32"`
	RegistrationNumber string          `json:"registration_number" gorm:"size:50;not null;uniqueIndex"`
	VehicleType        string          `json:"vehicle_type" gorm:"size:20;not null"`
	CapacityKg         int             `json:"capacity_kg" gorm:"not null"`
	FuelConsumption    decimal.Decimal `json:"fuel_consumption" gorm:"type:decimal(5,2)"` // liters per 100km
	IsInService        bool            `json:"is_in_service" gorm:"not null;default:true"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// Destination is a served (city, country) pair together with its rate table.
// The three rates drive shipment cost calculation and are only edited by
// operators; unknown destinations are created lazily with default rates.
type Destination struct {
	ID               string          `json:"id" gorm:"primaryKey;size:32"`
	City             string          `json:"city" gorm:"size:100;not null;index:idx_destinations_city_country,unique"`
	Country          string          `json:"country" gorm:"size:100;not null;index:idx_destinations_city_country,unique"`
	GeographicZone   string          `json:"geographic_zone" gorm:"size:100"`
	BaseRate         decimal.Decimal `json:"base_rate" gorm:"type:decimal(10,2);not null"`
	WeightRatePerKg  decimal.Decimal `json:"weight_rate_per_kg" gorm:"type:decimal(10,2);not null"`
	VolumeRatePerM3  decimal.Decimal `json:"volume_rate_per_m3" gorm:"type:decimal(10,2);not null"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Destination) TableName() string {
	return "destinations"
}
