package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/testutil"
)

func setupInvoiceService(t *testing.T) (*InvoiceService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewInvoiceService(db, repos.Invoice, repos.Shipment, repos.User)
	return svc, db
}

func clientBalance(t *testing.T, db *gorm.DB, clientID string) decimal.Decimal {
	t.Helper()
	var profile entity.ClientProfile
	if err := db.Where("user_id = ?", clientID).First(&profile).Error; err != nil {
		t.Fatalf("load client profile: %v", err)
	}
	return profile.Balance
}

func seedInvoiceFixtures(t *testing.T, db *gorm.DB) (clientID string, shipmentIDs []string) {
	t.Helper()
	testutil.SeedClient(t, db, "client-0001", "acme")
	testutil.SeedDestination(t, db, "dest-origin", "Oran", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedDestination(t, db, "dest-target", "Algiers", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedShipment(t, db, "ship-0001", "client-0001", "dest-origin", "dest-target", "25.00")
	testutil.SeedShipment(t, db, "ship-0002", "client-0001", "dest-origin", "dest-target", "40.00")
	return "client-0001", []string{"ship-0001", "ship-0002"}
}

func TestCreateInvoiceChargesBalance(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// 25 + 40 = 65.00 HT, 12.35 TVA, 77.35 TTC
	if !invoice.MontantHT.Equal(decimal.RequireFromString("65.00")) {
		t.Errorf("MontantHT = %s, want 65.00", invoice.MontantHT)
	}
	if !invoice.MontantTVA.Equal(decimal.RequireFromString("12.35")) {
		t.Errorf("MontantTVA = %s, want 12.35", invoice.MontantTVA)
	}
	if !invoice.MontantTTC.Equal(decimal.RequireFromString("77.35")) {
		t.Errorf("MontantTTC = %s, want 77.35", invoice.MontantTTC)
	}
	if invoice.Status != entity.InvoiceStatusUnpaid {
		t.Errorf("Status = %s, want UNPAID", invoice.Status)
	}

	balance := clientBalance(t, db, clientID)
	if !balance.Equal(decimal.RequireFromString("77.35")) {
		t.Errorf("balance = %s, want 77.35", balance)
	}

	var linked []entity.Shipment
	if err := db.Where("invoice_id = ?", invoice.ID).Find(&linked).Error; err != nil {
		t.Fatalf("load linked shipments: %v", err)
	}
	if len(linked) != 2 {
		t.Errorf("linked shipments = %d, want 2", len(linked))
	}
}

func TestCreateInvoiceRejectsAlreadyInvoicedShipments(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs[:1],
		DueDate:     "2026-09-30",
	}); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	balanceBefore := clientBalance(t, db, clientID)

	_, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-10-31",
	})
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflictErr.ShipmentIDs) != 1 || conflictErr.ShipmentIDs[0] != "ship-0001" {
		t.Errorf("offending shipments = %v, want [ship-0001]", conflictErr.ShipmentIDs)
	}

	// The failed attempt must not move the balance or create an invoice.
	if balance := clientBalance(t, db, clientID); !balance.Equal(balanceBefore) {
		t.Errorf("balance moved on failed create: %s, want %s", balance, balanceBefore)
	}
	var count int64
	db.Model(&entity.Invoice{}).Count(&count)
	if count != 1 {
		t.Errorf("invoice count = %d, want 1", count)
	}
}

func TestCreateInvoiceRejectsMissingShipments(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, _ := seedInvoiceFixtures(t, db)

	_, err := svc.Create(context.Background(), &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: []string{"ship-0001", "ship-missing"},
		DueDate:     "2026-09-30",
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if balance := clientBalance(t, db, clientID); !balance.IsZero() {
		t.Errorf("balance moved on failed create: %s", balance)
	}
}

func TestCreateInvoiceRejectsForeignShipments(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	testutil.SeedClient(t, db, "client-0002", "globex")
	testutil.SeedShipment(t, db, "ship-other", "client-0002", "dest-origin", "dest-target", "15.00")

	_, err := svc.Create(context.Background(), &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: append(shipmentIDs, "ship-other"),
		DueDate:     "2026-09-30",
	})
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflictErr.ShipmentIDs) != 1 || conflictErr.ShipmentIDs[0] != "ship-other" {
		t.Errorf("offending shipments = %v, want [ship-other]", conflictErr.ShipmentIDs)
	}
}

func TestRecordPaymentCreditsBalanceAndKeepsStatus(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	payment, err := svc.RecordPayment(ctx, &RecordPaymentRequest{
		InvoiceID:     invoice.ID,
		Amount:        "30.00",
		PaymentMethod: "BANK_TRANSFER",
	})
	if err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}
	if !payment.Amount.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("payment amount = %s, want 30.00", payment.Amount)
	}

	// 77.35 - 30.00 = 47.35
	if balance := clientBalance(t, db, clientID); !balance.Equal(decimal.RequireFromString("47.35")) {
		t.Errorf("balance = %s, want 47.35", balance)
	}

	// Full payment still does not flip the status.
	if _, err := svc.RecordPayment(ctx, &RecordPaymentRequest{
		InvoiceID:     invoice.ID,
		Amount:        "47.35",
		PaymentMethod: "CASH",
	}); err != nil {
		t.Fatalf("second RecordPayment returned error: %v", err)
	}
	reloaded, err := svc.Get(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if reloaded.Status != entity.InvoiceStatusUnpaid {
		t.Errorf("Status = %s, want UNPAID after payments", reloaded.Status)
	}
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	for _, amount := range []string{"0", "-5.00", "abc"} {
		_, err := svc.RecordPayment(ctx, &RecordPaymentRequest{
			InvoiceID:     invoice.ID,
			Amount:        amount,
			PaymentMethod: "CASH",
		})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("amount %q: expected ValidationError, got %v", amount, err)
		}
	}
}

func TestDeleteInvoiceReversesFullTTC(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Pay part of it first; deletion still reverses the full TTC.
	if _, err := svc.RecordPayment(ctx, &RecordPaymentRequest{
		InvoiceID:     invoice.ID,
		Amount:        "30.00",
		PaymentMethod: "CASH",
	}); err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}

	if err := svc.Delete(ctx, invoice.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	// 77.35 - 30.00 - 77.35 = -30.00
	if balance := clientBalance(t, db, clientID); !balance.Equal(decimal.RequireFromString("-30.00")) {
		t.Errorf("balance = %s, want -30.00", balance)
	}

	var linked int64
	db.Model(&entity.Shipment{}).Where("invoice_id IS NOT NULL").Count(&linked)
	if linked != 0 {
		t.Errorf("still-linked shipments = %d, want 0", linked)
	}

	if _, err := svc.Get(ctx, invoice.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeletedShipmentsCanBeReinvoiced(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	first, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	second, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-10-31",
	})
	if err != nil {
		t.Fatalf("re-invoice returned error: %v", err)
	}
	if !second.MontantTTC.Equal(decimal.RequireFromString("77.35")) {
		t.Errorf("MontantTTC = %s, want 77.35", second.MontantTTC)
	}
	// net effect of create, delete, create is a single charge
	if balance := clientBalance(t, db, clientID); !balance.Equal(decimal.RequireFromString("77.35")) {
		t.Errorf("balance = %s, want 77.35", balance)
	}
}

func TestUpdateStatusIsExplicit(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.UpdateStatus(ctx, invoice.ID, &UpdateInvoiceStatusRequest{Status: entity.InvoiceStatusPaid})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != entity.InvoiceStatusPaid {
		t.Errorf("Status = %s, want PAID", updated.Status)
	}
	// Status change alone never touches the balance.
	if balance := clientBalance(t, db, clientID); !balance.Equal(decimal.RequireFromString("77.35")) {
		t.Errorf("balance = %s, want 77.35", balance)
	}
}

func TestCreateInvoiceRejectsNonClient(t *testing.T) {
	svc, db := setupInvoiceService(t)
	testutil.SeedUser(t, db, "agent-0001", "agent", entity.RoleAgent)

	_, err := svc.Create(context.Background(), &CreateInvoiceRequest{
		ClientID:    "agent-0001",
		ShipmentIDs: []string{"ship-0001"},
		DueDate:     "2026-09-30",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// holdProfileLock takes the client profile row lock in a separate transaction
// and returns it still open, simulating a concurrent ledger operation.
func holdProfileLock(t *testing.T, db *gorm.DB, clientID string) *gorm.DB {
	t.Helper()
	holder := db.Begin()
	if holder.Error != nil {
		t.Fatalf("begin lock holder: %v", holder.Error)
	}
	t.Cleanup(func() { holder.Rollback() })
	if err := holder.Exec("SELECT user_id FROM client_profiles WHERE user_id = ? FOR UPDATE", clientID).Error; err != nil {
		t.Fatalf("hold profile lock: %v", err)
	}
	return holder
}

func TestCreateInvoiceFailsFastWhenProfileLocked(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)

	holder := holdProfileLock(t, db, clientID)

	_, err := svc.Create(context.Background(), &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if !errors.Is(err, ErrContention) {
		t.Fatalf("Create error = %v, want ErrContention", err)
	}

	holder.Rollback()
	if balance := clientBalance(t, db, clientID); !balance.IsZero() {
		t.Errorf("balance = %s, want 0 after refused create", balance)
	}
	var invoices int64
	db.Model(&entity.Invoice{}).Count(&invoices)
	if invoices != 0 {
		t.Errorf("invoice count = %d, want 0", invoices)
	}
}

func TestRecordPaymentFailsFastWhenProfileLocked(t *testing.T) {
	svc, db := setupInvoiceService(t)
	clientID, shipmentIDs := seedInvoiceFixtures(t, db)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, &CreateInvoiceRequest{
		ClientID:    clientID,
		ShipmentIDs: shipmentIDs,
		DueDate:     "2026-09-30",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	holder := holdProfileLock(t, db, clientID)

	_, err = svc.RecordPayment(ctx, &RecordPaymentRequest{
		InvoiceID:     invoice.ID,
		Amount:        "30.00",
		PaymentMethod: entity.PaymentMethodCash,
	})
	if !errors.Is(err, ErrContention) {
		t.Fatalf("RecordPayment error = %v, want ErrContention", err)
	}

	holder.Rollback()
	if balance := clientBalance(t, db, clientID); !balance.Equal(decimal.RequireFromString("77.35")) {
		t.Errorf("balance = %s, want 77.35 untouched", balance)
	}
	var payments int64
	db.Model(&entity.Payment{}).Count(&payments)
	if payments != 0 {
		t.Errorf("payment count = %d, want 0", payments)
	}
}
