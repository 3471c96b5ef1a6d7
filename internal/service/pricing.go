package service

import (
	"github.com/shopspring/decimal"
)

// pricing.go — cart and line total computation.
//
// The computation order is fixed: subtotal → percentage discount → percentage
// tax on the discounted amount. Reordering changes rounding. Intermediate
// values keep full precision; two-decimal rounding happens only when a value
// is persisted or returned to a client.

var oneHundred = decimal.NewFromInt(100)

// LinePrice breaks down one cart line.
type LinePrice struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	AfterDiscount  decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// PriceLine computes a single line from quantity, unit price and the line's
// percentage discount and tax.
func PriceLine(quantity int, unitPrice, discountPct, taxPct decimal.Decimal) LinePrice {
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	discountAmount := subtotal.Mul(discountPct.Div(oneHundred))
	afterDiscount := subtotal.Sub(discountAmount)
	taxAmount := afterDiscount.Mul(taxPct.Div(oneHundred))
	return LinePrice{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		AfterDiscount:  afterDiscount,
		TaxAmount:      taxAmount,
		Total:          afterDiscount.Add(taxAmount),
	}
}

// CartPrice aggregates committed line totals with the flat cart-level
// adjustments entered at checkout.
type CartPrice struct {
	ItemsTotal decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// PriceCart sums line totals and applies the flat cart discount and tax:
// grand_total = items_total - discount + tax.
func PriceCart(lines []LinePrice, cartDiscount, cartTax decimal.Decimal) CartPrice {
	itemsTotal := decimal.Zero
	for _, l := range lines {
		itemsTotal = itemsTotal.Add(l.Total)
	}
	return CartPrice{
		ItemsTotal: itemsTotal,
		Discount:   cartDiscount,
		Tax:        cartTax,
		GrandTotal: itemsTotal.Sub(cartDiscount).Add(cartTax),
	}
}
