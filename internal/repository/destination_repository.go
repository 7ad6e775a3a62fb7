package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

type DestinationRepository struct {
	db *gorm.DB
}

func NewDestinationRepository(db *gorm.DB) *DestinationRepository {
	return &DestinationRepository{db: db}
}

func (r *DestinationRepository) Create(ctx context.Context, d *entity.Destination) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DestinationRepository) Update(ctx context.Context, d *entity.Destination) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DestinationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Destination{}).Error
}

func (r *DestinationRepository) FindByID(ctx context.Context, id string) (*entity.Destination, error) {
	var d entity.Destination
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByCityCountry looks up a destination by its (city, country) identity.
func (r *DestinationRepository) FindByCityCountry(ctx context.Context, city, country string) (*entity.Destination, error) {
	var d entity.Destination
	err := r.db.WithContext(ctx).Where("city = ? AND country = ?", city, country).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DestinationRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Destination, int64, error) {
	var items []entity.Destination
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Destination{})
	if city := filters["city"]; city != "" {
		query = query.Where("city ILIKE ?", "%"+city+"%")
	}
	if country := filters["country"]; country != "" {
		query = query.Where("country ILIKE ?", "%"+country+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("country, city").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}
