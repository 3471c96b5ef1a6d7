package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every change to a batch's remaining quantity.
// Written in the same transaction as the change itself.
type StockMovement struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index"`
	BatchID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Type            string    `gorm:"not null"` // "sale" | "write_off" | "goods_receipt"
	Quantity        int       `gorm:"not null"` // positive = in, negative = out
	RemainingBefore int       `gorm:"not null"`
	RemainingAfter  int       `gorm:"not null"`
	Reason          string
	ReferenceID     *uuid.UUID `gorm:"type:uuid"` // sale_id when Type == "sale"
	CreatedAt       time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
	Batch   *Batch   `gorm:"foreignKey:BatchID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
