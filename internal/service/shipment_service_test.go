package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/testutil"
)

func setupShipmentService(t *testing.T) (*ShipmentService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewShipmentService(repos.Shipment, repos.Destination, repos.User)
	return svc, db
}

func shipmentRequest(clientID string) *CreateShipmentRequest {
	return &CreateShipmentRequest{
		ClientID:    clientID,
		Origin:      PlaceInput{City: "Oran", Country: "Algeria"},
		Destination: PlaceInput{City: "Algiers", Country: "Algeria"},
		Parcels: []ParcelInput{
			{WeightKg: "5", LengthCm: 50, WidthCm: 50, HeightCm: 40},
		},
	}
}

func TestCreateShipmentPricesWithDefaultRates(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedClient(t, db, "client-0001", "acme")

	shipment, err := svc.Create(context.Background(), shipmentRequest("client-0001"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Unknown destinations get rates 10/2/50, so the parcel prices at
	// 10 + 5*2 + 0.1*50 = 25.00.
	if !shipment.TotalCost.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("TotalCost = %s, want 25.00", shipment.TotalCost)
	}
	if shipment.Status != entity.ShipmentStatusPending {
		t.Errorf("Status = %s, want PENDING", shipment.Status)
	}
	if shipment.ServiceType != entity.ServiceTypeStandard {
		t.Errorf("ServiceType = %s, want STANDARD", shipment.ServiceType)
	}

	var destination entity.Destination
	if err := db.Where("city = ? AND country = ?", "Algiers", "Algeria").First(&destination).Error; err != nil {
		t.Fatalf("lazily created destination missing: %v", err)
	}
	if !destination.BaseRate.Equal(decimal.RequireFromString("10")) {
		t.Errorf("BaseRate = %s, want 10", destination.BaseRate)
	}
}

func TestCreateShipmentReusesExistingDestination(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedClient(t, db, "client-0001", "acme")
	testutil.SeedDestination(t, db, "dest-alg", "Algiers", "Algeria", "20.00", "3.00", "80.00")

	shipment, err := svc.Create(context.Background(), shipmentRequest("client-0001"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if shipment.DestinationID != "dest-alg" {
		t.Errorf("DestinationID = %s, want dest-alg", shipment.DestinationID)
	}
	// 20 + 5*3 + 0.1*80 = 43.00 with the seeded rates
	if !shipment.TotalCost.Equal(decimal.RequireFromString("43.00")) {
		t.Errorf("TotalCost = %s, want 43.00", shipment.TotalCost)
	}
}

func TestCreateShipmentGeneratesTrackingNumbers(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedClient(t, db, "client-0001", "acme")

	shipment, err := svc.Create(context.Background(), shipmentRequest("client-0001"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(shipment.Parcels) != 1 {
		t.Fatalf("parcels = %d, want 1", len(shipment.Parcels))
	}

	pattern := regexp.MustCompile(`^TRK-[0-9A-F]{8}$`)
	if !pattern.MatchString(shipment.Parcels[0].TrackingNumber) {
		t.Errorf("tracking number %q does not match TRK-XXXXXXXX", shipment.Parcels[0].TrackingNumber)
	}
}

func TestCreateShipmentRejectsNonClient(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedUser(t, db, "driver-0001", "driver", entity.RoleDriver)

	_, err := svc.Create(context.Background(), shipmentRequest("driver-0001"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateShipmentReplacesParcelsAndReprices(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedClient(t, db, "client-0001", "acme")
	ctx := context.Background()

	shipment, err := svc.Create(ctx, shipmentRequest("client-0001"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.Update(ctx, shipment.ID, &UpdateShipmentRequest{
		Parcels: []ParcelInput{
			{WeightKg: "5", LengthCm: 50, WidthCm: 50, HeightCm: 40},
			{WeightKg: "2.5", LengthCm: 20, WidthCm: 20, HeightCm: 25},
		},
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	// 10 + 7.5*2 + 0.11*50 = 30.50
	if !updated.TotalCost.Equal(decimal.RequireFromString("30.50")) {
		t.Errorf("TotalCost = %s, want 30.50", updated.TotalCost)
	}

	var count int64
	db.Model(&entity.Parcel{}).Where("shipment_id = ?", shipment.ID).Count(&count)
	if count != 2 {
		t.Errorf("stored parcels = %d, want 2", count)
	}
}

func TestUpdateShipmentWithSameParcelsKeepsCost(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedClient(t, db, "client-0001", "acme")
	ctx := context.Background()

	shipment, err := svc.Create(ctx, shipmentRequest("client-0001"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	before := shipment.TotalCost

	updated, err := svc.Update(ctx, shipment.ID, &UpdateShipmentRequest{
		Parcels: []ParcelInput{
			{WeightKg: "5", LengthCm: 50, WidthCm: 50, HeightCm: 40},
		},
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated.TotalCost.Equal(before) {
		t.Errorf("TotalCost changed from %s to %s for identical parcels", before, updated.TotalCost)
	}
}

func TestTourLockedShipmentIsImmutable(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedClient(t, db, "client-0001", "acme")
	ctx := context.Background()

	shipment, err := svc.Create(ctx, shipmentRequest("client-0001"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	tour := &entity.Tour{
		ID:                      "tour-0001",
		DriverID:                "driver-0001",
		VehicleID:               "veh-0001",
		Status:                  entity.TourStatusPlanned,
		DepartureTime:           time.Now().Add(24 * time.Hour),
		EstimatedCompletionTime: time.Now().Add(30 * time.Hour),
	}
	if err := db.Create(tour).Error; err != nil {
		t.Fatalf("seed tour: %v", err)
	}
	if err := db.Model(&entity.Shipment{}).Where("id = ?", shipment.ID).
		Update("tour_id", tour.ID).Error; err != nil {
		t.Fatalf("assign shipment to tour: %v", err)
	}

	status := entity.ShipmentStatusInTransit
	if _, err := svc.Update(ctx, shipment.ID, &UpdateShipmentRequest{Status: &status}); !errors.Is(err, ErrShipmentInTour) {
		t.Errorf("Update: expected ErrShipmentInTour, got %v", err)
	}
	if err := svc.Delete(ctx, shipment.ID); !errors.Is(err, ErrShipmentInTour) {
		t.Errorf("Delete: expected ErrShipmentInTour, got %v", err)
	}
}

func TestDeleteShipmentRemovesParcels(t *testing.T) {
	svc, db := setupShipmentService(t)
	testutil.SeedClient(t, db, "client-0001", "acme")
	ctx := context.Background()

	shipment, err := svc.Create(ctx, shipmentRequest("client-0001"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete(ctx, shipment.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var count int64
	db.Model(&entity.Parcel{}).Where("shipment_id = ?", shipment.ID).Count(&count)
	if count != 0 {
		t.Errorf("orphaned parcels = %d, want 0", count)
	}
}
