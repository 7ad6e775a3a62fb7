package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

type ShipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// Create inserts the shipment together with its parcels.
func (r *ShipmentRepository) Create(ctx context.Context, s *entity.Shipment) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ShipmentRepository) Update(ctx context.Context, s *entity.Shipment) error {
	return r.db.WithContext(ctx).Omit("Parcels", "Client", "Origin", "Destination").Save(s).Error
}

// Delete removes the shipment together with its parcels.
func (r *ShipmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shipment_id = ?", id).Delete(&entity.Parcel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Shipment{}).Error
	})
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*entity.Shipment, error) {
	var s entity.Shipment
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Origin").
		Preload("Destination").
		Preload("Parcels").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ShipmentRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Shipment, int64, error) {
	var items []entity.Shipment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Shipment{})
	if clientID := filters["client_id"]; clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if tourID := filters["tour_id"]; tourID != "" {
		query = query.Where("tour_id = ?", tourID)
	}
	if uninvoiced := filters["uninvoiced"]; uninvoiced == "true" {
		query = query.Where("invoice_id IS NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Origin").
		Preload("Destination").
		Preload("Parcels").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// UpdateTotalCost persists a recomputed cost for one shipment.
func (r *ShipmentRepository) UpdateTotalCost(ctx context.Context, id string, cost decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&entity.Shipment{}).
		Where("id = ?", id).
		Update("total_cost", cost).Error
}

// ReplaceParcels swaps the shipment's parcel set atomically.
func (r *ShipmentRepository) ReplaceParcels(ctx context.Context, shipmentID string, parcels []entity.Parcel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shipment_id = ?", shipmentID).Delete(&entity.Parcel{}).Error; err != nil {
			return err
		}
		if len(parcels) == 0 {
			return nil
		}
		return tx.Create(&parcels).Error
	})
}

// AssignToTour sets tour_id on the given shipments.
func (r *ShipmentRepository) AssignToTour(ctx context.Context, tx *gorm.DB, tourID string, shipmentIDs []string) error {
	return tx.WithContext(ctx).
		Model(&entity.Shipment{}).
		Where("id IN ?", shipmentIDs).
		Update("tour_id", tourID).Error
}

// FindByIDs loads the named shipments on the given handle, without preloads.
// The ledger runs it inside its balance transaction.
func (r *ShipmentRepository) FindByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]entity.Shipment, error) {
	var items []entity.Shipment
	err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// FindByInvoice loads the shipments currently linked to an invoice inside tx.
func (r *ShipmentRepository) FindByInvoice(ctx context.Context, tx *gorm.DB, invoiceID string) ([]entity.Shipment, error) {
	var items []entity.Shipment
	err := tx.WithContext(ctx).Where("invoice_id = ?", invoiceID).Find(&items).Error
	return items, err
}

// CountByStatus returns shipment counts grouped by status.
func (r *ShipmentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&entity.Shipment{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Latest returns the most recently created shipments.
func (r *ShipmentRepository) Latest(ctx context.Context, limit int) ([]entity.Shipment, error) {
	var items []entity.Shipment
	err := r.db.WithContext(ctx).
		Preload("Origin").
		Preload("Destination").
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
