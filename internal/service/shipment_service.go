package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/pricing"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
)

// Default rates for destinations created lazily at shipment creation.
var (
	defaultBaseRate        = decimal.NewFromFloat(10.00)
	defaultWeightRatePerKg = decimal.NewFromFloat(2.00)
	defaultVolumeRatePerM3 = decimal.NewFromFloat(50.00)
)

type ShipmentService struct {
	shipmentRepo    *repository.ShipmentRepository
	destinationRepo *repository.DestinationRepository
	userRepo        *repository.UserRepository
}

func NewShipmentService(shipmentRepo *repository.ShipmentRepository, destinationRepo *repository.DestinationRepository, userRepo *repository.UserRepository) *ShipmentService {
	return &ShipmentService{
		shipmentRepo:    shipmentRepo,
		destinationRepo: destinationRepo,
		userRepo:        userRepo,
	}
}

// ParcelInput is one parcel in a shipment request. A missing tracking number
// is generated.
type ParcelInput struct {
	TrackingNumber string `json:"tracking_number"`
	WeightKg       string `json:"weight_kg" binding:"required"`
	HeightCm       int    `json:"height_cm" binding:"required,gt=0"`
	WidthCm        int    `json:"width_cm" binding:"required,gt=0"`
	LengthCm       int    `json:"length_cm" binding:"required,gt=0"`
}

// PlaceInput names a destination; unknown (city, country) pairs are created
// with default rates.
type PlaceInput struct {
	City    string `json:"city" binding:"required"`
	Country string `json:"country" binding:"required"`
}

type CreateShipmentRequest struct {
	ClientID    string        `json:"client_id" binding:"required"`
	Origin      PlaceInput    `json:"origin" binding:"required"`
	Destination PlaceInput    `json:"destination" binding:"required"`
	ServiceType string        `json:"service_type" binding:"omitempty,oneof=STANDARD EXPRESS"`
	Parcels     []ParcelInput `json:"parcels" binding:"required,min=1,dive"`
}

type UpdateShipmentRequest struct {
	Status  *string       `json:"status" binding:"omitempty,oneof=PENDING IN_TRANSIT DELIVERED CANCELLED"`
	Parcels []ParcelInput `json:"parcels" binding:"omitempty,dive"`
}

func (s *ShipmentService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Shipment, int64, error) {
	return s.shipmentRepo.List(ctx, page, pageSize, filters)
}

func (s *ShipmentService) Get(ctx context.Context, id string) (*entity.Shipment, error) {
	return s.shipmentRepo.FindByID(ctx, id)
}

// Create stores the shipment with its parcels and prices it against the
// destination rates.
func (s *ShipmentService) Create(ctx context.Context, req *CreateShipmentRequest) (*entity.Shipment, error) {
	client, err := s.userRepo.FindByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", req.ClientID, err)
	}
	if client.Role != entity.RoleClient {
		return nil, &ValidationError{Field: "client_id", Message: "user is not a client"}
	}

	origin, err := s.lookupOrCreateDestination(ctx, req.Origin)
	if err != nil {
		return nil, err
	}
	destination, err := s.lookupOrCreateDestination(ctx, req.Destination)
	if err != nil {
		return nil, err
	}

	shipmentID := uuid.New().String()[:32]
	parcels, err := buildParcels(shipmentID, req.Parcels)
	if err != nil {
		return nil, err
	}

	cost, err := pricing.Compute(parcels, destination)
	if err != nil {
		return nil, err
	}

	serviceType := req.ServiceType
	if serviceType == "" {
		serviceType = entity.ServiceTypeStandard
	}

	shipment := &entity.Shipment{
		ID:            shipmentID,
		ClientID:      req.ClientID,
		OriginID:      origin.ID,
		DestinationID: destination.ID,
		ServiceType:   serviceType,
		Status:        entity.ShipmentStatusPending,
		TotalCost:     cost.Round(2),
		Parcels:       parcels,
	}

	if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	shipment.Origin = origin
	shipment.Destination = destination
	return shipment, nil
}

// Update applies status and parcel changes. Shipments already assigned to a
// tour are immutable. When the parcel set changes the cost is recomputed and
// persisted only if the rounded value differs from the stored one.
func (s *ShipmentService) Update(ctx context.Context, id string, req *UpdateShipmentRequest) (*entity.Shipment, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.InTour() {
		return nil, ErrShipmentInTour
	}

	if req.Status != nil {
		shipment.Status = *req.Status
		if err := s.shipmentRepo.Update(ctx, shipment); err != nil {
			return nil, fmt.Errorf("update shipment: %w", err)
		}
	}

	if req.Parcels != nil {
		parcels, err := buildParcels(shipment.ID, req.Parcels)
		if err != nil {
			return nil, err
		}
		if err := s.shipmentRepo.ReplaceParcels(ctx, shipment.ID, parcels); err != nil {
			return nil, fmt.Errorf("replace parcels: %w", err)
		}
		shipment.Parcels = parcels
		if err := s.RecomputeCost(ctx, shipment); err != nil {
			return nil, err
		}
	}

	return shipment, nil
}

func (s *ShipmentService) Delete(ctx context.Context, id string) error {
	shipment, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if shipment.InTour() {
		return ErrShipmentInTour
	}
	return s.shipmentRepo.Delete(ctx, id)
}

// RecomputeCost reprices the shipment from its current parcel set and writes
// the result only when it differs from the stored value, so an unchanged
// shipment re-save never touches the row.
func (s *ShipmentService) RecomputeCost(ctx context.Context, shipment *entity.Shipment) error {
	destination := shipment.Destination
	if destination == nil {
		var err error
		destination, err = s.destinationRepo.FindByID(ctx, shipment.DestinationID)
		if err != nil {
			return fmt.Errorf("destination %s: %w", shipment.DestinationID, err)
		}
	}

	cost, err := pricing.Compute(shipment.Parcels, destination)
	if err != nil {
		return err
	}

	rounded := cost.Round(2)
	if rounded.Equal(shipment.TotalCost) {
		return nil
	}

	if err := s.shipmentRepo.UpdateTotalCost(ctx, shipment.ID, rounded); err != nil {
		return fmt.Errorf("persist cost: %w", err)
	}
	shipment.TotalCost = rounded
	return nil
}

func (s *ShipmentService) lookupOrCreateDestination(ctx context.Context, place PlaceInput) (*entity.Destination, error) {
	d, err := s.destinationRepo.FindByCityCountry(ctx, place.City, place.Country)
	if err == nil {
		return d, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	d = &entity.Destination{
		ID:              uuid.New().String()[:32],
		City:            place.City,
		Country:         place.Country,
		BaseRate:        defaultBaseRate,
		WeightRatePerKg: defaultWeightRatePerKg,
		VolumeRatePerM3: defaultVolumeRatePerM3,
	}
	if err := s.destinationRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create destination %s/%s: %w", place.City, place.Country, err)
	}
	return d, nil
}

func buildParcels(shipmentID string, inputs []ParcelInput) ([]entity.Parcel, error) {
	parcels := make([]entity.Parcel, 0, len(inputs))
	for _, in := range inputs {
		weight, err := decimal.NewFromString(in.WeightKg)
		if err != nil {
			return nil, &ValidationError{Field: "weight_kg", Message: "not a valid decimal"}
		}
		if !weight.IsPositive() {
			return nil, &ValidationError{Field: "weight_kg", Message: "must be positive"}
		}

		trackingNumber := in.TrackingNumber
		if trackingNumber == "" {
			trackingNumber = generateTrackingNumber()
		}

		parcels = append(parcels, entity.Parcel{
			ID:             uuid.New().String()[:32],
			ShipmentID:     shipmentID,
			TrackingNumber: trackingNumber,
			WeightKg:       weight,
			HeightCm:       in.HeightCm,
			WidthCm:        in.WidthCm,
			LengthCm:       in.LengthCm,
		})
	}
	return parcels, nil
}

// generateTrackingNumber yields TRK-XXXXXXXX with 8 uppercase hex digits.
func generateTrackingNumber() string {
	id := uuid.New()
	return fmt.Sprintf("TRK-%08X", uint32(id[0])<<24|uint32(id[1])<<16|uint32(id[2])<<8|uint32(id[3]))
}
