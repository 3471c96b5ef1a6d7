package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from query string of GET /v1/products.
type ProductFilter struct {
	SKU    string `form:"sku"`
	Name   string `form:"name"`
	Active string `form:"active"` // "false" = inactive, "all" = everything, default active
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateProductRequest struct {
	SKU          string          `json:"sku"           validate:"required"`
	Name         string          `json:"name"          validate:"required"`
	Description  *string         `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"    validate:"required,gt=0"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"required,min=0"`
	ReorderLevel int             `json:"reorder_level" validate:"min=0"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	StockQuantity int             `json:"stock_quantity"`
	ReorderLevel  int             `json:"reorder_level"`
	Active        bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// LowStockAlert flags a product at or below its reorder level.
type LowStockAlert struct {
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
	ReorderLevel  int    `json:"reorder_level"`
}
