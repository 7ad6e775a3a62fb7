package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
)

// InvoiceService is the ledger around client balances. Every operation that
// touches a balance runs in one database transaction with the client profile
// row locked, so concurrent ledger calls for the same client serialize instead
// of losing updates.
type InvoiceService struct {
	db           *gorm.DB
	invoiceRepo  *repository.InvoiceRepository
	shipmentRepo *repository.ShipmentRepository
	userRepo     *repository.UserRepository
}

func NewInvoiceService(db *gorm.DB, invoiceRepo *repository.InvoiceRepository, shipmentRepo *repository.ShipmentRepository, userRepo *repository.UserRepository) *InvoiceService {
	return &InvoiceService{
		db:           db,
		invoiceRepo:  invoiceRepo,
		shipmentRepo: shipmentRepo,
		userRepo:     userRepo,
	}
}

// CreateInvoiceRequest creates an invoice over a client's shipments.
type CreateInvoiceRequest struct {
	ClientID    string   `json:"client_id" binding:"required"`
	ShipmentIDs []string `json:"shipment_ids" binding:"required,min=1"`
	DueDate     string   `json:"due_date" binding:"required"` // YYYY-MM-DD
}

// RecordPaymentRequest records a payment against an invoice.
type RecordPaymentRequest struct {
	InvoiceID     string `json:"invoice_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=CREDIT_CARD BANK_TRANSFER CASH"`
}

// UpdateInvoiceStatusRequest sets the invoice status. Payments never flip the
// status automatically; the transition is an explicit operator action.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=UNPAID PAID OVERDUE"`
}

func (s *InvoiceService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Invoice, int64, error) {
	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, err
	}
	for i := range invoices {
		invoices[i].ComputeTotals()
	}
	return invoices, total, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.ComputeTotals()
	return inv, nil
}

// Create builds the invoice, links the named shipments and increases the
// client balance by the invoice TTC. All of it commits or none of it does.
// This is the only operation that ever increases a balance.
func (s *InvoiceService) Create(ctx context.Context, req *CreateInvoiceRequest) (*entity.Invoice, error) {
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, &ValidationError{Field: "due_date", Message: "expected YYYY-MM-DD"}
	}

	client, err := s.userRepo.FindByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", req.ClientID, err)
	}
	if client.Role != entity.RoleClient {
		return nil, &ValidationError{Field: "client_id", Message: "user is not a client"}
	}

	invoice := &entity.Invoice{
		ID:         uuid.New().String()[:32],
		ClientID:   req.ClientID,
		Status:     entity.InvoiceStatusUnpaid,
		IssuedDate: time.Now(),
		DueDate:    dueDate,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.LockProfile(ctx, tx, req.ClientID); err != nil {
			if isLockNotAvailable(err) {
				return ErrContention
			}
			return fmt.Errorf("lock client profile: %w", err)
		}

		shipments, err := s.loadShipmentsForInvoicing(ctx, tx, req.ClientID, req.ShipmentIDs)
		if err != nil {
			return err
		}

		if err := s.invoiceRepo.Create(ctx, tx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.invoiceRepo.LinkShipments(ctx, tx, invoice.ID, req.ShipmentIDs); err != nil {
			return fmt.Errorf("link shipments: %w", err)
		}

		invoice.Shipments = shipments
		invoice.ComputeTotals()

		if err := s.userRepo.AddToBalance(ctx, tx, req.ClientID, invoice.MontantTTC); err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// loadShipmentsForInvoicing validates that every requested shipment exists,
// belongs to the client and is not yet invoiced. Offending ids are reported so
// the caller can fix the request; nothing is linked on failure.
func (s *InvoiceService) loadShipmentsForInvoicing(ctx context.Context, tx *gorm.DB, clientID string, ids []string) ([]entity.Shipment, error) {
	shipments, err := s.shipmentRepo.FindByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(shipments))
	var wrongClient, alreadyInvoiced []string
	for i := range shipments {
		sh := &shipments[i]
		found[sh.ID] = true
		if sh.ClientID != clientID {
			wrongClient = append(wrongClient, sh.ID)
		}
		if sh.InvoiceID != nil {
			alreadyInvoiced = append(alreadyInvoiced, sh.ID)
		}
	}

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}

	switch {
	case len(missing) > 0:
		return nil, fmt.Errorf("shipments %v: %w", missing, repository.ErrNotFound)
	case len(wrongClient) > 0:
		return nil, &ConflictError{Reason: "shipments belong to another client", ShipmentIDs: wrongClient}
	case len(alreadyInvoiced) > 0:
		return nil, &ConflictError{Reason: "shipments already invoiced", ShipmentIDs: alreadyInvoiced}
	}
	return shipments, nil
}

// RecordPayment stores the payment and decreases the client balance by its
// amount. The invoice status is left untouched.
func (s *InvoiceService) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*entity.Payment, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "not a valid decimal"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", req.InvoiceID, err)
	}

	payment := &entity.Payment{
		ID:            uuid.New().String()[:32],
		InvoiceID:     invoice.ID,
		Amount:        amount.Round(2),
		PaymentMethod: req.PaymentMethod,
		PaymentDate:   time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.LockProfile(ctx, tx, invoice.ClientID); err != nil {
			if isLockNotAvailable(err) {
				return ErrContention
			}
			return fmt.Errorf("lock client profile: %w", err)
		}
		if err := s.invoiceRepo.CreatePayment(ctx, tx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.userRepo.AddToBalance(ctx, tx, invoice.ClientID, payment.Amount.Neg()); err != nil {
			return fmt.Errorf("decrease balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// Delete decreases the client balance by the invoice's current TTC, then
// unlinks the shipments and removes the invoice. The TTC is recomputed from
// the still-linked shipments before anything is unlinked: once the links are
// gone the amount can no longer be derived.
//
// Payments already recorded against the invoice are deliberately ignored here:
// the balance drops by the full TTC even if part of it was paid, matching the
// established bookkeeping behavior.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("invoice %s: %w", id, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.LockProfile(ctx, tx, invoice.ClientID); err != nil {
			if isLockNotAvailable(err) {
				return ErrContention
			}
			return fmt.Errorf("lock client profile: %w", err)
		}

		// Recompute TTC under the lock from the links as they exist now.
		linked, err := s.shipmentRepo.FindByInvoice(ctx, tx, id)
		if err != nil {
			return err
		}
		snapshot := entity.Invoice{Shipments: linked}
		snapshot.ComputeTotals()

		if err := s.userRepo.AddToBalance(ctx, tx, invoice.ClientID, snapshot.MontantTTC.Neg()); err != nil {
			return fmt.Errorf("decrease balance: %w", err)
		}
		if err := s.invoiceRepo.UnlinkShipments(ctx, tx, id); err != nil {
			return fmt.Errorf("unlink shipments: %w", err)
		}
		if err := s.invoiceRepo.Delete(ctx, tx, id); err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
}

// UpdateStatus applies a manual status transition.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id string, req *UpdateInvoiceStatusRequest) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Status = req.Status
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	invoice.ComputeTotals()
	return invoice, nil
}

func (s *InvoiceService) ListPayments(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Payment, int64, error) {
	return s.invoiceRepo.ListPayments(ctx, page, pageSize, filters)
}

// Export renders the invoice as an Excel workbook for the accounting export.
func (s *InvoiceService) Export(ctx context.Context, id string) (*excelize.File, string, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Invoice"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	headers := []string{"Shipment", "Origin", "Destination", "Service", "Cost"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"4", h)
		f.SetCellStyle(sheet, col+"4", col+"4", boldStyle)
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Invoice %s", invoice.ID))
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Client: %s  Issued: %s  Due: %s",
		invoice.ClientID,
		invoice.IssuedDate.Format("2006-01-02"),
		invoice.DueDate.Format("2006-01-02"),
	))

	row := 5
	for _, sh := range invoice.Shipments {
		origin, destination := sh.OriginID, sh.DestinationID
		if sh.Origin != nil {
			origin = sh.Origin.City
		}
		if sh.Destination != nil {
			destination = sh.Destination.City
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), sh.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), origin)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), destination)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), sh.ServiceType)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), sh.TotalCost.InexactFloat64())
		row++
	}

	row++
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "Total HT")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), invoice.MontantHT.InexactFloat64())
	row++
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "TVA 19%")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), invoice.MontantTVA.InexactFloat64())
	row++
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "Total TTC")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), invoice.MontantTTC.InexactFloat64())

	filename := fmt.Sprintf("invoice_%s.xlsx", invoice.ID)
	return f, filename, nil
}
