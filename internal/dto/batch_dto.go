package dto

import "github.com/shopspring/decimal"

// ReceiveBatchRequest creates a batch from a goods receipt (GRN).
type ReceiveBatchRequest struct {
	ProductID       string          `json:"product_id"       validate:"required,uuid"`
	BatchNumber     string          `json:"batch_number"     validate:"required"`
	ExpiryDate      string          `json:"expiry_date"      validate:"required,datetime=2006-01-02"`
	ManufactureDate *string         `json:"manufacture_date" validate:"omitempty,datetime=2006-01-02"`
	Quantity        int             `json:"quantity"         validate:"required,gt=0"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"   validate:"required,min=0"`
	SellingPrice    decimal.Decimal `json:"selling_price"    validate:"required,gt=0"`
	MRP             decimal.Decimal `json:"mrp"              validate:"min=0"`
}

type WriteOffRequest struct {
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Reason   string `json:"reason"   validate:"required,min=3"`
}

type BatchResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	ExpiryDate        string          `json:"expiry_date"`
	ManufactureDate   *string         `json:"manufacture_date,omitempty"`
	QuantityReceived  int             `json:"quantity_received"`
	QuantityRemaining int             `json:"quantity_remaining"`
	QuantitySold      int             `json:"quantity_sold"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	MRP               decimal.Decimal `json:"mrp"`
	Expired           bool            `json:"expired"`
}

// ExpiryAlert is one batch approaching its expiry date.
type ExpiryAlert struct {
	BatchID           string `json:"batch_id"`
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	BatchNumber       string `json:"batch_number"`
	ExpiryDate        string `json:"expiry_date"`
	QuantityRemaining int    `json:"quantity_remaining"`
	DaysUntilExpiry   int    `json:"days_until_expiry"`
}

// AllocationEntry is one (batch, quantity) pair of an allocation plan, exposed
// to the UI so the cashier sees which batch will be consumed before checkout.
type AllocationEntry struct {
	BatchID           string          `json:"batch_id"`
	BatchNumber       string          `json:"batch_number"`
	ExpiryDate        string          `json:"expiry_date"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	QuantityRemaining int             `json:"quantity_remaining"`
}

type AllocationResponse struct {
	ProductID string            `json:"product_id"`
	Requested int               `json:"requested"`
	Plan      []AllocationEntry `json:"plan"`
}
