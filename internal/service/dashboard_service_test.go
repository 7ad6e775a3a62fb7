package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/testutil"
)

func setupDashboardService(t *testing.T) (*DashboardService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewDashboardService(repos.User, repos.Shipment, repos.Tour, repos.Invoice, repos.Support)
	return svc, db
}

func seedDashboardFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedClient(t, db, "client-0001", "acme")
	testutil.SeedUser(t, db, "agent-0001", "agent", entity.RoleAgent)
	testutil.SeedDestination(t, db, "dest-a", "Oran", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedDestination(t, db, "dest-b", "Algiers", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedShipment(t, db, "ship-0001", "client-0001", "dest-a", "dest-b", "25.00")
	testutil.SeedShipment(t, db, "ship-0002", "client-0001", "dest-a", "dest-b", "40.00")
	testutil.SeedShipment(t, db, "ship-0003", "client-0001", "dest-a", "dest-b", "15.00")

	now := time.Now()
	for _, inv := range []entity.Invoice{
		{ID: "inv-paid", ClientID: "client-0001", Status: entity.InvoiceStatusPaid, IssuedDate: now, DueDate: now},
		{ID: "inv-open", ClientID: "client-0001", Status: entity.InvoiceStatusUnpaid, IssuedDate: now, DueDate: now},
	} {
		if err := db.Create(&inv).Error; err != nil {
			t.Fatalf("seed invoice %s: %v", inv.ID, err)
		}
	}
	for shipmentID, invoiceID := range map[string]string{"ship-0001": "inv-paid", "ship-0002": "inv-open"} {
		err := db.Model(&entity.Shipment{}).Where("id = ?", shipmentID).Update("invoice_id", invoiceID).Error
		if err != nil {
			t.Fatalf("link %s: %v", shipmentID, err)
		}
	}

	testutil.SeedUser(t, db, "driver-0001", "wheels", entity.RoleDriver)
	fixtures := []interface{}{
		&entity.Driver{ID: "drv-0001", UserID: "driver-0001", LicenseNumber: "DZ-123"},
		&entity.Vehicle{ID: "veh-0001", RegistrationNumber: "1234-AA-16", VehicleType: entity.VehicleTypeVan, CapacityKg: 800},
		&entity.Tour{
			ID:                      "tour-0001",
			DriverID:                "drv-0001",
			VehicleID:               "veh-0001",
			Status:                  entity.TourStatusInProgress,
			DepartureTime:           now,
			EstimatedCompletionTime: now.Add(4 * time.Hour),
		},
		&entity.Incident{
			ID:           "inc-0001",
			ShipmentID:   "ship-0003",
			IncidentType: entity.IncidentTypeDeliveryDelayed,
			Description:  "stuck at the depot",
			Status:       entity.IncidentStatusOpen,
			DateOccurred: now,
			ReportedByID: "agent-0001",
		},
		&entity.Claim{
			ID:       "clm-0001",
			ClientID: "client-0001",
			Reason:   "late delivery",
			Status:   entity.ClaimStatusReceived,
		},
	}
	for _, fixture := range fixtures {
		if err := db.Create(fixture).Error; err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
}

func TestGetOverviewAggregates(t *testing.T) {
	svc, db := setupDashboardService(t)
	seedDashboardFixtures(t, db)

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview returned error: %v", err)
	}

	if overview.TotalClients != 1 {
		t.Errorf("TotalClients = %d, want 1", overview.TotalClients)
	}
	if overview.TotalShipments != 3 {
		t.Errorf("TotalShipments = %d, want 3", overview.TotalShipments)
	}
	if overview.ShipmentsByStatus[entity.ShipmentStatusPending] != 3 {
		t.Errorf("pending shipments = %d, want 3", overview.ShipmentsByStatus[entity.ShipmentStatusPending])
	}
	if overview.ToursInProgress != 1 {
		t.Errorf("ToursInProgress = %d, want 1", overview.ToursInProgress)
	}
	if overview.OpenIncidents != 1 {
		t.Errorf("OpenIncidents = %d, want 1", overview.OpenIncidents)
	}
	// Paid invoice covers ship-0001: 25 HT plus 19% TVA.
	if !overview.RevenueTTC.Equal(decimal.RequireFromString("29.75")) {
		t.Errorf("RevenueTTC = %s, want 29.75", overview.RevenueTTC)
	}
	// Unpaid invoice covers ship-0002: 40 HT plus 19% TVA.
	if !overview.OutstandingTTC.Equal(decimal.RequireFromString("47.60")) {
		t.Errorf("OutstandingTTC = %s, want 47.60", overview.OutstandingTTC)
	}
	if len(overview.LatestShipments) != 3 {
		t.Errorf("LatestShipments = %d, want 3", len(overview.LatestShipments))
	}
	if len(overview.LatestClaims) != 1 {
		t.Errorf("LatestClaims = %d, want 1", len(overview.LatestClaims))
	}
}

func TestGetOverviewOnEmptyDatabase(t *testing.T) {
	svc, _ := setupDashboardService(t)

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview returned error: %v", err)
	}
	if overview.TotalClients != 0 || overview.TotalShipments != 0 {
		t.Errorf("counts = %d clients / %d shipments, want 0 / 0", overview.TotalClients, overview.TotalShipments)
	}
	if !overview.RevenueTTC.IsZero() || !overview.OutstandingTTC.IsZero() {
		t.Errorf("totals = %s / %s, want 0 / 0", overview.RevenueTTC, overview.OutstandingTTC)
	}
}
