package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/testutil"
)

func setupTourService(t *testing.T) (*TourService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewTourService(db, repos.Tour, repos.Fleet, repos.Shipment)
	return svc, db
}

func seedTourFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedUser(t, db, "user-drv", "driver1", entity.RoleDriver)
	driver := &entity.Driver{ID: "drv-0001", UserID: "user-drv", LicenseNumber: "B123456", IsAvailable: true}
	if err := db.Create(driver).Error; err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	vehicle := &entity.Vehicle{ID: "veh-0001", RegistrationNumber: "16-123-45", VehicleType: entity.VehicleTypeVan, CapacityKg: 1200, IsInService: true}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	testutil.SeedClient(t, db, "client-0001", "acme")
	testutil.SeedDestination(t, db, "dest-a", "Oran", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedDestination(t, db, "dest-b", "Algiers", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedShipment(t, db, "ship-0001", "client-0001", "dest-a", "dest-b", "25.00")
	testutil.SeedShipment(t, db, "ship-0002", "client-0001", "dest-a", "dest-b", "40.00")
}

func tourRequest(shipmentIDs ...string) *CreateTourRequest {
	departure := time.Now().Add(24 * time.Hour)
	return &CreateTourRequest{
		DriverID:                "drv-0001",
		VehicleID:               "veh-0001",
		DepartureTime:           departure.Format(time.RFC3339),
		EstimatedCompletionTime: departure.Add(6 * time.Hour).Format(time.RFC3339),
		ShipmentIDs:             shipmentIDs,
	}
}

func TestCreateTourAssignsShipments(t *testing.T) {
	svc, db := setupTourService(t)
	seedTourFixtures(t, db)

	tour, err := svc.Create(context.Background(), tourRequest("ship-0001", "ship-0002"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if tour.Status != entity.TourStatusPlanned {
		t.Errorf("Status = %s, want PLANNED", tour.Status)
	}

	var assigned int64
	db.Model(&entity.Shipment{}).Where("tour_id = ?", tour.ID).Count(&assigned)
	if assigned != 2 {
		t.Errorf("assigned shipments = %d, want 2", assigned)
	}
}

func TestCreateTourRejectsUnknownDriver(t *testing.T) {
	svc, db := setupTourService(t)
	seedTourFixtures(t, db)

	req := tourRequest()
	req.DriverID = "drv-missing"
	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssignShipmentsRejectsAlreadyToured(t *testing.T) {
	svc, db := setupTourService(t)
	seedTourFixtures(t, db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, tourRequest("ship-0001")); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	second, err := svc.Create(ctx, tourRequest())
	if err != nil {
		t.Fatalf("second Create returned error: %v", err)
	}

	_, err = svc.AssignShipments(ctx, second.ID, &AssignShipmentsRequest{
		ShipmentIDs: []string{"ship-0001", "ship-0002"},
	})
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflictErr.ShipmentIDs) != 1 || conflictErr.ShipmentIDs[0] != "ship-0001" {
		t.Errorf("offending shipments = %v, want [ship-0001]", conflictErr.ShipmentIDs)
	}

	// Nothing from the failed assignment sticks.
	var assigned int64
	db.Model(&entity.Shipment{}).Where("tour_id = ?", second.ID).Count(&assigned)
	if assigned != 0 {
		t.Errorf("assigned shipments = %d, want 0", assigned)
	}
}

func TestDeleteTourReleasesShipments(t *testing.T) {
	svc, db := setupTourService(t)
	seedTourFixtures(t, db)
	ctx := context.Background()

	tour, err := svc.Create(ctx, tourRequest("ship-0001", "ship-0002"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete(ctx, tour.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var stillAssigned int64
	db.Model(&entity.Shipment{}).Where("tour_id IS NOT NULL").Count(&stillAssigned)
	if stillAssigned != 0 {
		t.Errorf("still-assigned shipments = %d, want 0", stillAssigned)
	}
}
