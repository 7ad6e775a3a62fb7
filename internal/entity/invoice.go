package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses
const (
	InvoiceStatusUnpaid  = "UNPAID"
	InvoiceStatusPaid    = "PAID"
	InvoiceStatusOverdue = "OVERDUE"
)

// Payment methods
const (
	PaymentMethodCreditCard   = "CREDIT_CARD"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
	PaymentMethodCash         = "CASH"
)

// TVARate is the flat VAT rate applied to every invoice.
var TVARate = decimal.NewFromFloat(0.19)

// Invoice aggregates the shipments billed to one client. The HT/TVA/TTC
// amounts are never stored: they are recomputed from the currently linked
// shipments every time they are read.
type Invoice struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	ClientID   string    `json:"client_id" gorm:"size:32;not null;index"`
	Status     string    `json:"status" gorm:"size:20;not null;default:UNPAID"`
	IssuedDate time.Time `json:"issued_date" gorm:"not null"`
	DueDate    time.Time `json:"due_date" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Client    *User      `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Shipments []Shipment `json:"shipments,omitempty" gorm:"foreignKey:InvoiceID"`
	Payments  []Payment  `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`

	// Derived amounts, populated by the service on read.
	MontantHT  decimal.Decimal `json:"montant_ht" gorm:"-"`
	MontantTVA decimal.Decimal `json:"montant_tva" gorm:"-"`
	MontantTTC decimal.Decimal `json:"montant_ttc" gorm:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// ComputeTotals fills the derived HT/TVA/TTC amounts from the shipments
// currently loaded on the invoice.
func (i *Invoice) ComputeTotals() {
	ht := decimal.Zero
	for _, s := range i.Shipments {
		ht = ht.Add(s.TotalCost)
	}
	i.MontantHT = ht.Round(2)
	i.MontantTVA = ht.Mul(TVARate).Round(2)
	i.MontantTTC = i.MontantHT.Add(i.MontantTVA)
}

type Payment struct {
	ID            string          `json:"id" gorm:"primaryKey;size:32"`
	InvoiceID     string          `json:"invoice_id" gorm:"size:32;not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentMethod string          `json:"payment_method" gorm:"size:50;not null"`
	PaymentDate   time.Time       `json:"payment_date" gorm:"not null"`
	CreatedAt     time.Time       `json:"created_at"`

	Invoice *Invoice `json:"invoice,omitempty" gorm:"foreignKey:InvoiceID"`
}

func (Payment) TableName() string {
	return "payments"
}
