package dto

import "github.com/shopspring/decimal"

// ABCFilter is bound from query string of GET /v1/analytics/abc.
type ABCFilter struct {
	Days int `form:"days,default=30" validate:"min=1,max=365"`
}

// ABCEntry is one product's classification plus the sales metrics behind it.
type ABCEntry struct {
	ProductID       string          `json:"product_id"`
	SKU             string          `json:"sku"`
	ProductName     string          `json:"product_name"`
	Class           string          `json:"abc_class"` // A | B | C
	TotalSold       int             `json:"total_sold"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	RevenueShare    decimal.Decimal `json:"revenue_share"`    // this product's fraction of total
	CumulativeShare decimal.Decimal `json:"cumulative_share"` // running total walking the ranking
	AvgDailySales   decimal.Decimal `json:"avg_daily_sales"`
	CurrentStock    int             `json:"current_stock"`
	DaysOfSupply    *int            `json:"days_of_supply,omitempty"`
}

type ABCResponse struct {
	Days         int             `json:"days"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Entries      []ABCEntry      `json:"entries"`
}
