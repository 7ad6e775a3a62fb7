package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories holds one repository per aggregate.
type Repositories struct {
	User        *UserRepository
	Destination *DestinationRepository
	Fleet       *FleetRepository
	Shipment    *ShipmentRepository
	Tour        *TourRepository
	Invoice     *InvoiceRepository
	Support     *SupportRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Destination: NewDestinationRepository(db),
		Fleet:       NewFleetRepository(db),
		Shipment:    NewShipmentRepository(db),
		Tour:        NewTourRepository(db),
		Invoice:     NewInvoiceRepository(db),
		Support:     NewSupportRepository(db),
	}
}
