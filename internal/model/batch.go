package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is one received lot of a product sharing an expiry date and purchase
// price. Created on goods receipt, mutated only by reservation or write-off,
// never deleted — exhausted and expired batches stay for audit history.
//
// Invariants enforced by the ledger:
//   - QuantityRemaining >= 0
//   - QuantityReceived == QuantityRemaining + QuantitySold + written-off units
type Batch struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_batches_product_number,priority:1"`
	BatchNumber       string    `gorm:"not null;uniqueIndex:ux_batches_product_number,priority:2"`
	ExpiryDate        time.Time `gorm:"type:date;not null;index"`
	ManufactureDate   *time.Time `gorm:"type:date"`
	QuantityReceived  int             `gorm:"not null"`
	QuantityRemaining int             `gorm:"not null;check:quantity_remaining >= 0"`
	QuantitySold      int             `gorm:"not null;default:0"`
	PurchasePrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MRP               decimal.Decimal `gorm:"column:mrp;type:decimal(10,2)"`
	Active            bool            `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Expired reports whether the batch may no longer be sold as of the given day.
// A batch expiring today is still sellable (expiry_date >= today is eligible).
func (b *Batch) Expired(today time.Time) bool {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	exp := time.Date(b.ExpiryDate.Year(), b.ExpiryDate.Month(), b.ExpiryDate.Day(), 0, 0, 0, 0, time.UTC)
	return exp.Before(day)
}

// Eligible reports whether the batch qualifies for allocation.
func (b *Batch) Eligible(today time.Time) bool {
	return b.Active && b.QuantityRemaining > 0 && !b.Expired(today)
}
