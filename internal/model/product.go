package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the sellable unit. StockQuantity is a derived cache of the sum of
// active batch quantity_remaining — it is recalculated inside every ledger
// transaction and must never be written by callers directly.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU           string    `gorm:"uniqueIndex;not null"`
	Name          string    `gorm:"index;not null"`
	Description   *string
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockQuantity int             `gorm:"not null;default:0"`
	ReorderLevel  int             `gorm:"not null;default:10"`
	Active        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Batches []Batch `gorm:"foreignKey:ProductID"`
}
