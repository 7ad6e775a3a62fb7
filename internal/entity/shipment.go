package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shipment service types
const (
	ServiceTypeStandard = "STANDARD"
	ServiceTypeExpress  = "EXPRESS"
)

// Shipment statuses
const (
	ShipmentStatusPending   = "PENDING"
	ShipmentStatusInTransit = "IN_TRANSIT"
	ShipmentStatusDelivered = "DELIVERED"
	ShipmentStatusCancelled = "CANCELLED"
)

// Tour statuses
const (
	TourStatusPlanned    = "PLANNED"
	TourStatusInProgress = "IN_PROGRESS"
	TourStatusCompleted  = "COMPLETED"
)

// Shipment is one client consignment. TotalCost is derived: it always equals
// the pricing computation over the current parcel set and destination rates,
// recomputed on every parcel change.
type Shipment struct {
	ID            string          `json:"id" gorm:"primaryKey;size:32"`
	ClientID      string          `json:"client_id" gorm:"size:32;not null;index"`
	OriginID      string          `json:"origin_id" gorm:"size:32;not null"`
	DestinationID string          `json:"destination_id" gorm:"size:32;not null"`
	TourID        *string         `json:"tour_id" gorm:"size:32;index"`
	InvoiceID     *string         `json:"invoice_id" gorm:"size:32;index"`
	ServiceType   string          `json:"service_type" gorm:"size:20;not null;default:STANDARD"`
	Status        string          `json:"status" gorm:"size:20;not null;default:PENDING"`
	TotalCost     decimal.Decimal `json:"total_cost" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Client      *User        `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Origin      *Destination `json:"origin,omitempty" gorm:"foreignKey:OriginID"`
	Destination *Destination `json:"destination,omitempty" gorm:"foreignKey:DestinationID"`
	Parcels     []Parcel     `json:"parcels,omitempty" gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// InTour reports whether the shipment is assigned to a delivery tour.
// Shipments in a tour are locked against update and delete.
func (s *Shipment) InTour() bool {
	return s.TourID != nil && *s.TourID != ""
}

// Parcel belongs to exactly one shipment and is cascade-deleted with it.
// Dimensions are centimeters, weight is kilograms.
type Parcel struct {
	ID             string          `json:"id" gorm:"primaryKey;size:32"`
	ShipmentID     string          `json:"shipment_id" gorm:"size:32;not null;index"`
	TrackingNumber string          `json:"tracking_number" gorm:"size:100;not null;uniqueIndex"`
	WeightKg       decimal.Decimal `json:"weight_kg" gorm:"type:decimal(7,2);not null"`
	HeightCm       int             `json:"height_cm" gorm:"not null"`
	WidthCm        int             `json:"width_cm" gorm:"not null"`
	LengthCm       int             `json:"length_cm" gorm:"not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Parcel) TableName() string {
	return "parcels"
}

// Tour is a scheduled delivery run for one driver and vehicle.
type Tour struct {
	ID                      string           `json:"id" gorm:"primaryKey;size:32"`
	DriverID                string           `json:"driver_id" gorm:"size:32;not null;index"`
	VehicleID               string           `json:"vehicle_id" gorm:"size:32;not null;index"`
	Status                  string           `json:"status" gorm:"size:20;not null;default:PLANNED"`
	DepartureTime           time.Time        `json:"departure_time" gorm:"not null"`
	EstimatedCompletionTime time.Time        `json:"estimated_completion_time" gorm:"not null"`
	MileageKm               *decimal.Decimal `json:"mileage_km" gorm:"type:decimal(10,2)"`
	DurationHours           *decimal.Decimal `json:"duration_hours" gorm:"type:decimal(5,2)"`
	FuelConsumedLiters      *decimal.Decimal `json:"fuel_consumed_liters" gorm:"type:decimal(7,2)"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`

	Driver    *Driver    `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Vehicle   *Vehicle   `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	Shipments []Shipment `json:"shipments,omitempty" gorm:"foreignKey:TourID"`
}

func (Tour) TableName() string {
	return "tours"
}
