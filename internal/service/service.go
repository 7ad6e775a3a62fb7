package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/config"
	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
)

// Services is the service collection wired at startup.
type Services struct {
	Auth        *AuthService
	User        *UserService
	Destination *DestinationService
	Fleet       *FleetService
	Shipment    *ShipmentService
	Tour        *TourService
	Invoice     *InvoiceService
	Support     *SupportService
	Dashboard   *DashboardService
}

func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	// MinIO is optional; without it incident photos are rejected.
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			minioClient = nil
		}
	}

	return &Services{
		Auth:        NewAuthService(db, repos.User, rdb, cfg),
		User:        NewUserService(repos.User),
		Destination: NewDestinationService(repos.Destination),
		Fleet:       NewFleetService(repos.Fleet, repos.User),
		Shipment:    NewShipmentService(repos.Shipment, repos.Destination, repos.User),
		Tour:        NewTourService(db, repos.Tour, repos.Fleet, repos.Shipment),
		Invoice:     NewInvoiceService(db, repos.Invoice, repos.Shipment, repos.User),
		Support:     NewSupportService(repos.Support, repos.Shipment, minioClient, cfg.MinIO.Bucket),
		Dashboard:   NewDashboardService(repos.User, repos.Shipment, repos.Tour, repos.Invoice, repos.Support),
	}
}

// UserService exposes user listing for the back office.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context, page, pageSize int, role string) ([]entity.User, int64, error) {
	return s.repo.List(ctx, page, pageSize, role)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

// DestinationService manages the per-destination rate tables.
type DestinationService struct {
	repo *repository.DestinationRepository
}

func NewDestinationService(repo *repository.DestinationRepository) *DestinationService {
	return &DestinationService{repo: repo}
}

type CreateDestinationRequest struct {
	City            string `json:"city" binding:"required"`
	Country         string `json:"country" binding:"required"`
	GeographicZone  string `json:"geographic_zone"`
	BaseRate        string `json:"base_rate" binding:"required"`
	WeightRatePerKg string `json:"weight_rate_per_kg" binding:"required"`
	VolumeRatePerM3 string `json:"volume_rate_per_m3" binding:"required"`
}

type UpdateDestinationRequest struct {
	GeographicZone  *string `json:"geographic_zone"`
	BaseRate        *string `json:"base_rate"`
	WeightRatePerKg *string `json:"weight_rate_per_kg"`
	VolumeRatePerM3 *string `json:"volume_rate_per_m3"`
}

func (s *DestinationService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Destination, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

func (s *DestinationService) Get(ctx context.Context, id string) (*entity.Destination, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DestinationService) Create(ctx context.Context, req *CreateDestinationRequest) (*entity.Destination, error) {
	base, weight, volume, err := parseRates(req.BaseRate, req.WeightRatePerKg, req.VolumeRatePerM3)
	if err != nil {
		return nil, err
	}

	d := &entity.Destination{
		ID:              uuid.New().String()[:32],
		City:            req.City,
		Country:         req.Country,
		GeographicZone:  req.GeographicZone,
		BaseRate:        base,
		WeightRatePerKg: weight,
		VolumeRatePerM3: volume,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	return d, nil
}

func (s *DestinationService) Update(ctx context.Context, id string, req *UpdateDestinationRequest) (*entity.Destination, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.GeographicZone != nil {
		d.GeographicZone = *req.GeographicZone
	}
	if req.BaseRate != nil {
		rate, err := parseNonNegativeRate("base_rate", *req.BaseRate)
		if err != nil {
			return nil, err
		}
		d.BaseRate = rate
	}
	if req.WeightRatePerKg != nil {
		rate, err := parseNonNegativeRate("weight_rate_per_kg", *req.WeightRatePerKg)
		if err != nil {
			return nil, err
		}
		d.WeightRatePerKg = rate
	}
	if req.VolumeRatePerM3 != nil {
		rate, err := parseNonNegativeRate("volume_rate_per_m3", *req.VolumeRatePerM3)
		if err != nil {
			return nil, err
		}
		d.VolumeRatePerM3 = rate
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update destination: %w", err)
	}
	return d, nil
}

func (s *DestinationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func parseRates(base, weight, volume string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	b, err := parseNonNegativeRate("base_rate", base)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	w, err := parseNonNegativeRate("weight_rate_per_kg", weight)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	v, err := parseNonNegativeRate("volume_rate_per_m3", volume)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	return b, w, v, nil
}

func parseNonNegativeRate(field, value string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Message: "not a valid decimal"}
	}
	if rate.IsNegative() {
		return decimal.Zero, &ValidationError{Field: field, Message: "must not be negative"}
	}
	return rate, nil
}

// FleetService manages drivers and vehicles.
type FleetService struct {
	fleetRepo *repository.FleetRepository
	userRepo  *repository.UserRepository
}

func NewFleetService(fleetRepo *repository.FleetRepository, userRepo *repository.UserRepository) *FleetService {
	return &FleetService{fleetRepo: fleetRepo, userRepo: userRepo}
}

type CreateDriverRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	LicenseNumber string `json:"license_number" binding:"required"`
}

type UpdateDriverRequest struct {
	LicenseNumber *string `json:"license_number"`
	IsAvailable   *bool   `json:"is_available"`
}

type CreateVehicleRequest struct {
	RegistrationNumber string `json:"registration_number" binding:"required"`
	VehicleType        string `json:"vehicle_type" binding:"required,oneof=TRUCK VAN CAR"`
	CapacityKg         int    `json:"capacity_kg" binding:"required,gt=0"`
	FuelConsumption    string `json:"fuel_consumption"`
}

type UpdateVehicleRequest struct {
	VehicleType     *string `json:"vehicle_type" binding:"omitempty,oneof=TRUCK VAN CAR"`
	CapacityKg      *int    `json:"capacity_kg" binding:"omitempty,gt=0"`
	FuelConsumption *string `json:"fuel_consumption"`
	IsInService     *bool   `json:"is_in_service"`
}

func (s *FleetService) CreateDriver(ctx context.Context, req *CreateDriverRequest) (*entity.Driver, error) {
	user, err := s.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", req.UserID, err)
	}
	if user.Role != entity.RoleDriver {
		return nil, &ValidationError{Field: "user_id", Message: "user is not a driver"}
	}

	driver := &entity.Driver{
		ID:            uuid.New().String()[:32],
		UserID:        req.UserID,
		LicenseNumber: req.LicenseNumber,
		IsAvailable:   true,
	}
	if err := s.fleetRepo.CreateDriver(ctx, driver); err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}
	driver.User = user
	return driver, nil
}

func (s *FleetService) UpdateDriver(ctx context.Context, id string, req *UpdateDriverRequest) (*entity.Driver, error) {
	driver, err := s.fleetRepo.FindDriverByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.LicenseNumber != nil {
		driver.LicenseNumber = *req.LicenseNumber
	}
	if req.IsAvailable != nil {
		driver.IsAvailable = *req.IsAvailable
	}
	if err := s.fleetRepo.UpdateDriver(ctx, driver); err != nil {
		return nil, fmt.Errorf("update driver: %w", err)
	}
	return driver, nil
}

func (s *FleetService) GetDriver(ctx context.Context, id string) (*entity.Driver, error) {
	return s.fleetRepo.FindDriverByID(ctx, id)
}

func (s *FleetService) ListDrivers(ctx context.Context, page, pageSize int, onlyAvailable bool) ([]entity.Driver, int64, error) {
	return s.fleetRepo.ListDrivers(ctx, page, pageSize, onlyAvailable)
}

func (s *FleetService) CreateVehicle(ctx context.Context, req *CreateVehicleRequest) (*entity.Vehicle, error) {
	fuel := decimal.Zero
	if req.FuelConsumption != "" {
		var err error
		fuel, err = decimal.NewFromString(req.FuelConsumption)
		if err != nil {
			return nil, &ValidationError{Field: "fuel_consumption", Message: "not a valid decimal"}
		}
	}

	vehicle := &entity.Vehicle{
		ID:                 uuid.New().String()[:32],
		RegistrationNumber: req.RegistrationNumber,
		VehicleType:        req.VehicleType,
		CapacityKg:         req.CapacityKg,
		FuelConsumption:    fuel,
		IsInService:        true,
	}
	if err := s.fleetRepo.CreateVehicle(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *FleetService) UpdateVehicle(ctx context.Context, id string, req *UpdateVehicleRequest) (*entity.Vehicle, error) {
	vehicle, err := s.fleetRepo.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.VehicleType != nil {
		vehicle.VehicleType = *req.VehicleType
	}
	if req.CapacityKg != nil {
		vehicle.CapacityKg = *req.CapacityKg
	}
	if req.FuelConsumption != nil {
		fuel, err := decimal.NewFromString(*req.FuelConsumption)
		if err != nil {
			return nil, &ValidationError{Field: "fuel_consumption", Message: "not a valid decimal"}
		}
		vehicle.FuelConsumption = fuel
	}
	if req.IsInService != nil {
		vehicle.IsInService = *req.IsInService
	}
	if err := s.fleetRepo.UpdateVehicle(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *FleetService) GetVehicle(ctx context.Context, id string) (*entity.Vehicle, error) {
	return s.fleetRepo.FindVehicleByID(ctx, id)
}

func (s *FleetService) ListVehicles(ctx context.Context, page, pageSize int, onlyInService bool) ([]entity.Vehicle, int64, error) {
	return s.fleetRepo.ListVehicles(ctx, page, pageSize, onlyInService)
}
