package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

type TourRepository struct {
	db *gorm.DB
}

func NewTourRepository(db *gorm.DB) *TourRepository {
	return &TourRepository{db: db}
}

func (r *TourRepository) Create(ctx context.Context, t *entity.Tour) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TourRepository) Update(ctx context.Context, t *entity.Tour) error {
	return r.db.WithContext(ctx).Omit("Driver", "Vehicle", "Shipments").Save(t).Error
}

func (r *TourRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Release assigned shipments before removing the tour.
		if err := tx.Model(&entity.Shipment{}).
			Where("tour_id = ?", id).
			Update("tour_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Tour{}).Error
	})
}

func (r *TourRepository) FindByID(ctx context.Context, id string) (*entity.Tour, error) {
	var t entity.Tour
	err := r.db.WithContext(ctx).
		Preload("Driver.User").
		Preload("Vehicle").
		Preload("Shipments").
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TourRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Tour, int64, error) {
	var items []entity.Tour
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Tour{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if driverID := filters["driver_id"]; driverID != "" {
		query = query.Where("driver_id = ?", driverID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Driver.User").
		Preload("Vehicle").
		Order("departure_time DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

func (r *TourRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Tour{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
