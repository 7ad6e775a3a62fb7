package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
)

type TourService struct {
	db           *gorm.DB
	tourRepo     *repository.TourRepository
	fleetRepo    *repository.FleetRepository
	shipmentRepo *repository.ShipmentRepository
}

func NewTourService(db *gorm.DB, tourRepo *repository.TourRepository, fleetRepo *repository.FleetRepository, shipmentRepo *repository.ShipmentRepository) *TourService {
	return &TourService{
		db:           db,
		tourRepo:     tourRepo,
		fleetRepo:    fleetRepo,
		shipmentRepo: shipmentRepo,
	}
}

type CreateTourRequest struct {
	DriverID                string   `json:"driver_id" binding:"required"`
	VehicleID               string   `json:"vehicle_id" binding:"required"`
	DepartureTime           string   `json:"departure_time" binding:"required"` // RFC 3339
	EstimatedCompletionTime string   `json:"estimated_completion_time" binding:"required"`
	ShipmentIDs             []string `json:"shipment_ids"`
}

type UpdateTourRequest struct {
	Status             *string `json:"status" binding:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED"`
	MileageKm          *string `json:"mileage_km"`
	DurationHours      *string `json:"duration_hours"`
	FuelConsumedLiters *string `json:"fuel_consumed_liters"`
}

type AssignShipmentsRequest struct {
	ShipmentIDs []string `json:"shipment_ids" binding:"required,min=1"`
}

func (s *TourService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Tour, int64, error) {
	return s.tourRepo.List(ctx, page, pageSize, filters)
}

func (s *TourService) Get(ctx context.Context, id string) (*entity.Tour, error) {
	return s.tourRepo.FindByID(ctx, id)
}

// Create builds the tour and, when shipment ids are given, assigns them in the
// same transaction. Assigned shipments become immutable to update and delete.
func (s *TourService) Create(ctx context.Context, req *CreateTourRequest) (*entity.Tour, error) {
	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return nil, &ValidationError{Field: "departure_time", Message: "expected RFC 3339 timestamp"}
	}
	completion, err := time.Parse(time.RFC3339, req.EstimatedCompletionTime)
	if err != nil {
		return nil, &ValidationError{Field: "estimated_completion_time", Message: "expected RFC 3339 timestamp"}
	}

	if _, err := s.fleetRepo.FindDriverByID(ctx, req.DriverID); err != nil {
		return nil, fmt.Errorf("driver %s: %w", req.DriverID, err)
	}
	if _, err := s.fleetRepo.FindVehicleByID(ctx, req.VehicleID); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", req.VehicleID, err)
	}

	tour := &entity.Tour{
		ID:                      uuid.New().String()[:32],
		DriverID:                req.DriverID,
		VehicleID:               req.VehicleID,
		Status:                  entity.TourStatusPlanned,
		DepartureTime:           departure,
		EstimatedCompletionTime: completion,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tour).Error; err != nil {
			return fmt.Errorf("create tour: %w", err)
		}
		if len(req.ShipmentIDs) > 0 {
			if err := s.checkAssignable(ctx, req.ShipmentIDs); err != nil {
				return err
			}
			if err := s.shipmentRepo.AssignToTour(ctx, tx, tour.ID, req.ShipmentIDs); err != nil {
				return fmt.Errorf("assign shipments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tour, nil
}

func (s *TourService) Update(ctx context.Context, id string, req *UpdateTourRequest) (*entity.Tour, error) {
	tour, err := s.tourRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		tour.Status = *req.Status
	}
	if req.MileageKm != nil {
		v, err := decimal.NewFromString(*req.MileageKm)
		if err != nil {
			return nil, &ValidationError{Field: "mileage_km", Message: "not a valid decimal"}
		}
		tour.MileageKm = &v
	}
	if req.DurationHours != nil {
		v, err := decimal.NewFromString(*req.DurationHours)
		if err != nil {
			return nil, &ValidationError{Field: "duration_hours", Message: "not a valid decimal"}
		}
		tour.DurationHours = &v
	}
	if req.FuelConsumedLiters != nil {
		v, err := decimal.NewFromString(*req.FuelConsumedLiters)
		if err != nil {
			return nil, &ValidationError{Field: "fuel_consumed_liters", Message: "not a valid decimal"}
		}
		tour.FuelConsumedLiters = &v
	}

	if err := s.tourRepo.Update(ctx, tour); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}
	return tour, nil
}

func (s *TourService) Delete(ctx context.Context, id string) error {
	if _, err := s.tourRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.tourRepo.Delete(ctx, id)
}

// AssignShipments adds shipments to an existing tour.
func (s *TourService) AssignShipments(ctx context.Context, tourID string, req *AssignShipmentsRequest) (*entity.Tour, error) {
	if _, err := s.tourRepo.FindByID(ctx, tourID); err != nil {
		return nil, err
	}
	if err := s.checkAssignable(ctx, req.ShipmentIDs); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.shipmentRepo.AssignToTour(ctx, tx, tourID, req.ShipmentIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("assign shipments: %w", err)
	}
	return s.tourRepo.FindByID(ctx, tourID)
}

// checkAssignable rejects ids that are unknown or already on another tour.
func (s *TourService) checkAssignable(ctx context.Context, ids []string) error {
	shipments, err := s.shipmentRepo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return err
	}

	found := make(map[string]bool, len(shipments))
	var taken []string
	for i := range shipments {
		found[shipments[i].ID] = true
		if shipments[i].InTour() {
			taken = append(taken, shipments[i].ID)
		}
	}

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("shipments %v: %w", missing, repository.ErrNotFound)
	}
	if len(taken) > 0 {
		return &ConflictError{Reason: "shipments already assigned to a tour", ShipmentIDs: taken}
	}
	return nil
}
