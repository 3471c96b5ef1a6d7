package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CartLineRequest is one line of the cart being committed. Batch binding is
// not trusted from cart-build time — the settlement re-allocates against the
// current ledger, so only product and quantity identify the stock to draw.
type CartLineRequest struct {
	ProductID   string          `json:"product_id"   validate:"required,uuid"`
	Quantity    int             `json:"quantity"     validate:"required,gt=0"`
	DiscountPct decimal.Decimal `json:"discount_pct" validate:"min=0,max=100"`
	TaxPct      decimal.Decimal `json:"tax_pct"      validate:"min=0,max=100"`
}

// CommitSaleRequest is the typed checkout payload. Cart-level discount and tax
// are flat amounts entered at checkout, independent of per-line percentages.
type CommitSaleRequest struct {
	CustomerName    string            `json:"customer_name"`
	CustomerContact string            `json:"customer_contact"`
	Lines           []CartLineRequest `json:"lines"          validate:"required,min=1,dive"`
	Discount        decimal.Decimal   `json:"discount"       validate:"min=0"`
	Tax             decimal.Decimal   `json:"tax"            validate:"min=0"`
	PaymentMethod   string            `json:"payment_method" validate:"required,oneof=cash card transfer"`
	PaidAmount      decimal.Decimal   `json:"paid_amount"    validate:"min=0"`
	Notes           *string           `json:"notes"`
}

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	Date  string `form:"date"` // YYYY-MM-DD; empty = today
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID   string          `json:"product_id"`
	Product     string          `json:"product"`
	BatchNumber string          `json:"batch_number"`
	ExpiryDate  string          `json:"expiry_date"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	InvoiceNumber int                `json:"invoice_number"`
	CustomerName  string             `json:"customer_name,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	NetAmount     decimal.Decimal    `json:"net_amount"`
	PaidAmount    decimal.Decimal    `json:"paid_amount"`
	Change        decimal.Decimal    `json:"change"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
