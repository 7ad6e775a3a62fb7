package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

// InvoiceRepository covers invoices and payments. Balance-mutating writes go
// through the transaction handle passed in by the ledger service so they
// commit or roll back together with the balance update.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, tx *gorm.DB, inv *entity.Invoice) error {
	return tx.WithContext(ctx).Omit("Shipments", "Payments", "Client").Create(inv).Error
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *entity.Invoice) error {
	return r.db.WithContext(ctx).Omit("Shipments", "Payments", "Client").Save(inv).Error
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Shipments.Parcels").
		Preload("Payments").
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Invoice, int64, error) {
	var items []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{})
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
		Preload("Shipments").
		Preload("Payments").
		Order("issued_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// LinkShipments points the given shipments at an invoice inside tx.
func (r *InvoiceRepository) LinkShipments(ctx context.Context, tx *gorm.DB, invoiceID string, shipmentIDs []string) error {
	return tx.WithContext(ctx).
		Model(&entity.Shipment{}).
		Where("id IN ?", shipmentIDs).
		Update("invoice_id", invoiceID).Error
}

// UnlinkShipments clears the invoice reference on all shipments of an invoice.
func (r *InvoiceRepository) UnlinkShipments(ctx context.Context, tx *gorm.DB, invoiceID string) error {
	return tx.WithContext(ctx).
		Model(&entity.Shipment{}).
		Where("invoice_id = ?", invoiceID).
		Update("invoice_id", nil).Error
}

func (r *InvoiceRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entity.Invoice{}).Error
}

func (r *InvoiceRepository) CreatePayment(ctx context.Context, tx *gorm.DB, p *entity.Payment) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *InvoiceRepository) ListPayments(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Payment, int64, error) {
	var items []entity.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Payment{})
	if invoiceID := filters["invoice_id"]; invoiceID != "" {
		query = query.Where("invoice_id = ?", invoiceID)
	}
	if clientID := filters["client_id"]; clientID != "" {
		query = query.
			Joins("JOIN invoices ON invoices.id = payments.invoice_id").
			Where("invoices.client_id = ?", clientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("payment_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// SumInvoicedHT totals the shipment costs linked to invoices in the given
// statuses. Invoice amounts are never stored, so the linked shipment costs
// are the only source.
func (r *InvoiceRepository) SumInvoicedHT(ctx context.Context, statuses []string) (decimal.Decimal, error) {
	var raw struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Table("shipments").
		Select("COALESCE(SUM(shipments.total_cost), 0) AS total").
		Joins("JOIN invoices ON invoices.id = shipments.invoice_id").
		Where("invoices.status IN ?", statuses).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Total, nil
}
