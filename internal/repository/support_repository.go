package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

// SupportRepository covers incidents and claims.
type SupportRepository struct {
	db *gorm.DB
}

func NewSupportRepository(db *gorm.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) CreateIncident(ctx context.Context, i *entity.Incident) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *SupportRepository) UpdateIncident(ctx context.Context, i *entity.Incident) error {
	return r.db.WithContext(ctx).Omit("Shipment", "ReportedBy").Save(i).Error
}

func (r *SupportRepository) FindIncidentByID(ctx context.Context, id string) (*entity.Incident, error) {
	var i entity.Incident
	err := r.db.WithContext(ctx).
		Preload("Shipment").
		Preload("ReportedBy").
		Where("id = ?", id).
		First(&i).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *SupportRepository) ListIncidents(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Incident, int64, error) {
	var items []entity.Incident
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Incident{})
	if shipmentID := filters["shipment_id"]; shipmentID != "" {
		query = query.Where("shipment_id = ?", shipmentID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if incidentType := filters["incident_type"]; incidentType != "" {
		query = query.Where("incident_type = ?", incidentType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Shipment").
		Order("date_occurred DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

func (r *SupportRepository) CountIncidentsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Incident{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *SupportRepository) CreateClaim(ctx context.Context, c *entity.Claim) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *SupportRepository) UpdateClaim(ctx context.Context, c *entity.Claim) error {
	return r.db.WithContext(ctx).Omit("Client", "Incident").Save(c).Error
}

func (r *SupportRepository) FindClaimByID(ctx context.Context, id string) (*entity.Claim, error) {
	var c entity.Claim
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Incident").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *SupportRepository) ListClaims(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Claim, int64, error) {
	var items []entity.Claim
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Claim{})
	if clientID := filters["client_id"]; clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Incident").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// LatestClaims returns the most recently filed claims.
func (r *SupportRepository) LatestClaims(ctx context.Context, limit int) ([]entity.Claim, error) {
	var items []entity.Claim
	err := r.db.WithContext(ctx).
		Preload("Client").
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
