package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pharmazine/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitSale_HappyPath(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	b := seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 50)

	resp, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines: []dto.CartLineRequest{{
			ProductID:   product.ID.String(),
			Quantity:    3,
			DiscountPct: d("10"),
			TaxPct:      d("5"),
		}},
		PaymentMethod: "cash",
		PaidAmount:    d("30.00"),
	})
	require.NoError(t, err)

	// 3 × 10.00 − 10% + 5% = 28.35
	assert.Equal(t, 1, resp.InvoiceNumber)
	assert.True(t, resp.TotalAmount.Equal(d("28.35")), "total %s", resp.TotalAmount)
	assert.True(t, resp.NetAmount.Equal(d("28.35")))
	assert.True(t, resp.Change.Equal(d("1.65")), "change %s", resp.Change)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "LOT-A", resp.Items[0].BatchNumber)
	assert.Equal(t, "2025-06-01", resp.Items[0].ExpiryDate)

	_, terr := time.Parse(time.RFC3339, resp.CreatedAt)
	assert.NoError(t, terr, "created_at is RFC 3339")

	got, _ := f.batches.FindByID(context.Background(), b.ID)
	assert.Equal(t, 47, got.QuantityRemaining)
	assert.Equal(t, 3, got.QuantitySold)

	prod, _ := f.products.FindByID(context.Background(), product.ID)
	assert.Equal(t, 47, prod.StockQuantity)

	moves, _ := f.movements.ListByProduct(context.Background(), product.ID, 10)
	require.Len(t, moves, 1)
	assert.Equal(t, "sale", moves[0].Type)
	assert.Equal(t, -3, moves[0].Quantity)
	require.NotNil(t, moves[0].ReferenceID)
	assert.Equal(t, resp.ID, moves[0].ReferenceID.String())
}

func TestCommitSale_LineSpansBatchesInExpiryOrder(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	seedBatch(f, product.ID, "LOT-FEB", date(2025, 2, 1), 4)
	seedBatch(f, product.ID, "LOT-JUN", date(2025, 6, 1), 40)

	resp, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines: []dto.CartLineRequest{{
			ProductID: product.ID.String(),
			Quantity:  10,
		}},
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	// One persisted item per batch drawn from, earliest expiry first.
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "LOT-FEB", resp.Items[0].BatchNumber)
	assert.Equal(t, 4, resp.Items[0].Quantity)
	assert.Equal(t, "LOT-JUN", resp.Items[1].BatchNumber)
	assert.Equal(t, 6, resp.Items[1].Quantity)

	// total_amount == Σ persisted item totals, exactly.
	sum := decimal.Zero
	for _, it := range resp.Items {
		sum = sum.Add(it.TotalPrice)
	}
	assert.True(t, resp.TotalAmount.Equal(sum))
}

func TestCommitSale_CartAdjustmentsAndNetAmount(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 50)

	resp, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines: []dto.CartLineRequest{{
			ProductID: product.ID.String(),
			Quantity:  2,
		}},
		Discount:      d("1.50"),
		Tax:           d("0.75"),
		PaymentMethod: "cash",
		PaidAmount:    d("50.00"),
	})
	require.NoError(t, err)

	// net = 20.00 − 1.50 + 0.75
	assert.True(t, resp.TotalAmount.Equal(d("20.00")))
	assert.True(t, resp.NetAmount.Equal(d("19.25")), "net %s", resp.NetAmount)
	assert.True(t, resp.Change.Equal(d("30.75")))
}

func TestCommitSale_AuditChainAcrossRepeatedBatchTouches(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	b := seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 10)

	// Two lines draw from the same batch within one commit; the audit rows
	// must chain 10→7→3, not repeat the plan-time remaining.
	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines: []dto.CartLineRequest{
			{ProductID: product.ID.String(), Quantity: 3},
			{ProductID: product.ID.String(), Quantity: 4},
		},
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	moves, _ := f.movements.ListByProduct(context.Background(), product.ID, 10)
	require.Len(t, moves, 2)
	assert.Equal(t, 10, moves[0].RemainingBefore)
	assert.Equal(t, 7, moves[0].RemainingAfter)
	assert.Equal(t, 7, moves[1].RemainingBefore)
	assert.Equal(t, 3, moves[1].RemainingAfter)

	got, _ := f.batches.FindByID(context.Background(), b.ID)
	assert.Equal(t, got.QuantityRemaining, moves[1].RemainingAfter, "last audit row matches the ledger")
}

func TestCommitSale_DiscountExceedingTotalRejected(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	b := seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 50)

	// 2 × 10.00 with a 25.00 cart discount would persist a negative net.
	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines:         []dto.CartLineRequest{{ProductID: product.ID.String(), Quantity: 2}},
		Discount:      d("25.00"),
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	got, _ := f.batches.FindByID(context.Background(), b.ID)
	assert.Equal(t, 50, got.QuantityRemaining)
	assert.Equal(t, int64(0), countSales(f))
}

func TestCommitSale_InsufficientCashRejectedBeforeReserving(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	b := seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 50)

	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines:         []dto.CartLineRequest{{ProductID: product.ID.String(), Quantity: 2}},
		PaymentMethod: "cash",
		PaidAmount:    d("19.99"),
	})
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	got, _ := f.batches.FindByID(context.Background(), b.ID)
	assert.Equal(t, 50, got.QuantityRemaining)
	assert.Equal(t, int64(0), countSales(f))
}

func TestCommitSale_CardBelowTotalAccepted(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 50)

	// The cash-covers-total check applies to cash only.
	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines:         []dto.CartLineRequest{{ProductID: product.ID.String(), Quantity: 2}},
		PaymentMethod: "card",
	})
	assert.NoError(t, err)
}

func TestCommitSale_OutOfStockLineFailsWholeCart(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	ok := seedProduct(f, "PARA-500")
	seedBatch(f, ok.ID, "LOT-A", date(2025, 6, 1), 50)
	empty := seedProduct(f, "IBU-200")

	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines: []dto.CartLineRequest{
			{ProductID: ok.ID.String(), Quantity: 2},
			{ProductID: empty.ID.String(), Quantity: 1},
		},
		PaymentMethod: "card",
	})

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, 1, commitErr.Line)
	assert.Equal(t, empty.ID, commitErr.ProductID)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, int64(0), countSales(f))
}

func TestCommitSale_UnknownProduct(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))

	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines:         []dto.CartLineRequest{{ProductID: uuid.New().String(), Quantity: 1}},
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCommitSale_PersistenceFailureUnwindsReservations(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	b := seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 50)
	f.sales.failCreate = true

	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines:         []dto.CartLineRequest{{ProductID: product.ID.String(), Quantity: 5}},
		PaymentMethod: "card",
	})
	require.Error(t, err)

	// The reservation applied before the failure was released.
	got, _ := f.batches.FindByID(context.Background(), b.ID)
	assert.Equal(t, 50, got.QuantityRemaining)
	assert.Equal(t, 0, got.QuantitySold)
	assert.Equal(t, int64(0), countSales(f))
}

func TestCommitSale_PlanConflictBetweenLinesUnwinds(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	b := seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 10)

	// Both lines plan against the same 10 units; the second reservation loses.
	_, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
		Lines: []dto.CartLineRequest{
			{ProductID: product.ID.String(), Quantity: 8},
			{ProductID: product.ID.String(), Quantity: 8},
		},
		PaymentMethod: "card",
	})

	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, _ := f.batches.FindByID(context.Background(), b.ID)
	assert.Equal(t, 10, got.QuantityRemaining, "first line's reservation was unwound")
	assert.Equal(t, 0, got.QuantitySold)
}

func TestCommitSale_ConcurrentCommitsOneWins(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	b := seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 10)

	req := dto.CommitSaleRequest{
		Lines:         []dto.CartLineRequest{{ProductID: product.ID.String(), Quantity: 10}},
		PaymentMethod: "card",
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.saleSvc.CommitSale(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			// The loser either failed planning or lost the guarded decrement.
			stockErr := errors.Is(err, ErrOutOfStock) || errors.Is(err, ErrInsufficientStock)
			assert.True(t, stockErr, "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, failures, "exactly one commit wins the batch")

	got, _ := f.batches.FindByID(context.Background(), b.ID)
	assert.Equal(t, 0, got.QuantityRemaining)
	assert.Equal(t, 10, got.QuantitySold)
	assert.Equal(t, int64(1), countSales(f))
}

func TestCommitSale_InvoiceNumbersAreSequential(t *testing.T) {
	f := newFixture()
	withClock(f, date(2025, 1, 10))
	product := seedProduct(f, "PARA-500")
	seedBatch(f, product.ID, "LOT-A", date(2025, 6, 1), 100)

	for want := 1; want <= 3; want++ {
		resp, err := f.saleSvc.CommitSale(context.Background(), dto.CommitSaleRequest{
			Lines:         []dto.CartLineRequest{{ProductID: product.ID.String(), Quantity: 1}},
			PaymentMethod: "card",
		})
		require.NoError(t, err)
		assert.Equal(t, want, resp.InvoiceNumber)
	}
}

func countSales(f *fixture) int64 {
	_, total, _ := f.sales.List(context.Background(), dto.SaleFilter{Page: 1, Limit: 100})
	return total
}
