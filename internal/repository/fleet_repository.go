package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

// FleetRepository covers drivers and vehicles.
type FleetRepository struct {
	db *gorm.DB
}

func NewFleetRepository(db *gorm.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

func (r *FleetRepository) CreateDriver(ctx context.Context, d *entity.Driver) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *FleetRepository) UpdateDriver(ctx context.Context, d *entity.Driver) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *FleetRepository) FindDriverByID(ctx context.Context, id string) (*entity.Driver, error) {
	var d entity.Driver
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *FleetRepository) ListDrivers(ctx context.Context, page, pageSize int, onlyAvailable bool) ([]entity.Driver, int64, error) {
	var items []entity.Driver
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Driver{})
	if onlyAvailable {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

func (r *FleetRepository) CreateVehicle(ctx context.Context, v *entity.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *FleetRepository) UpdateVehicle(ctx context.Context, v *entity.Vehicle) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *FleetRepository) FindVehicleByID(ctx context.Context, id string) (*entity.Vehicle, error) {
	var v entity.Vehicle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *FleetRepository) ListVehicles(ctx context.Context, page, pageSize int, onlyInService bool) ([]entity.Vehicle, int64, error) {
	var items []entity.Vehicle
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Vehicle{})
	if onlyInService {
		query = query.Where("is_in_service = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("registration_number").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}
