package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a committed checkout. Created atomically with its items and the
// batch decrements that back them; immutable afterwards except PaymentStatus.
//
// Invariants: NetAmount == TotalAmount - Discount + Tax, and
// TotalAmount == sum of item TotalPrice.
type Sale struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber   int       `gorm:"uniqueIndex;not null"`
	CustomerName    string
	CustomerContact string
	PaymentMethod   string          `gorm:"not null"` // cash | card | transfer
	PaymentStatus   string          `gorm:"not null;default:'paid'"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Discount        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Tax             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Notes           *string
	CreatedAt       time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// SaleItem freezes the batch identity used at the moment of sale. BatchNumber
// and ExpiryDate are denormalized snapshots — the batch row may change later
// (expire, deactivate) but the sold record must keep what was actually sold.
type SaleItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BatchID      uuid.UUID `gorm:"type:uuid;not null"`
	BatchNumber  string    `gorm:"not null"`
	ExpiryDate   time.Time `gorm:"type:date;not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPct  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TaxPct       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt    time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
