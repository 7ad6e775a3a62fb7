package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// User roles
const (
	RoleAdmin  = "ADMIN"
	RoleAgent  = "AGENT"
	RoleDriver = "DRIVER"
	RoleClient = "CLIENT"
)

// User is a system account. Back-office staff, drivers and clients share one table.
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Username     string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Email        string     `json:"email" gorm:"size:128;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	FirstName    string     `json:"first_name" gorm:"size:64"`
	LastName     string     `json:"last_name" gorm:"size:64"`
	Role         string     `json:"role" gorm:"size:16;not null;index"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Profile *ClientProfile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// ClientProfile carries the billing data of a CLIENT user. Balance is the
// client's outstanding debt and is only ever mutated by the invoice ledger.
type ClientProfile struct {
	UserID      string          `json:"user_id" gorm:"primaryKey;size:32"`
	CompanyName string          `json:"company_name" gorm:"size:255"`
	Address     string          `json:"address" gorm:"type:text"`
	PhoneNumber string          `json:"phone_number" gorm:"size:20"`
	Balance     decimal.Decimal `json:"balance" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (ClientProfile) TableName() string {
	return "client_profiles"
}
