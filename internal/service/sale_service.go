package service

import (
	"context"
	"fmt"
	"time"

	"pharmazine/internal/dto"
	"pharmazine/internal/model"
	"pharmazine/internal/repository"
	"pharmazine/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	CommitSale(ctx context.Context, req dto.CommitSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo       repository.SaleRepository
	products   repository.ProductRepository
	allocator  Allocator
	ledger     LedgerService
	dispatcher *worker.Dispatcher
}

func NewSaleService(
	repo repository.SaleRepository,
	products repository.ProductRepository,
	allocator Allocator,
	ledger LedgerService,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		repo:       repo,
		products:   products,
		allocator:  allocator,
		ledger:     ledger,
		dispatcher: dispatcher,
	}
}

// pendingItem is one allocation entry priced and ready to persist. A cart
// line that spans several batches produces one pendingItem per batch, each
// snapshotting the batch identity it sells from.
type pendingItem struct {
	line        int
	productID   uuid.UUID
	productName string
	batch       model.Batch
	quantity    int
	unitPrice   decimal.Decimal
	discountPct decimal.Decimal
	taxPct      decimal.Decimal
	totalPrice  decimal.Decimal
}

// ── CommitSale ────────────────────────────────────────────────────────────────
// The only sale-driven path allowed to decrement batch stock.
//   1. Re-allocate every line against the current ledger — cart-build state is
//      never trusted.
//   2. Price each allocation entry in the fixed order and validate payment.
//   3. One transaction: reserve every batch touched, create the sale with its
//      item snapshots and movement audit rows, refresh product aggregates.
//   4. Any failure unwinds every reservation applied in this attempt.

func (s *saleService) CommitSale(ctx context.Context, req dto.CommitSaleRequest) (*dto.SaleResponse, error) {
	// 1–2. Plan and price outside the transaction.
	var pending []pendingItem
	for i, line := range req.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id on line %d: %w", i, err)
		}
		product, err := s.products.FindByID(ctx, productID)
		if err != nil || !product.Active {
			return nil, &CommitError{Line: i, ProductID: productID, Err: ErrProductNotFound}
		}

		plan, err := s.allocator.Allocate(ctx, productID, line.Quantity)
		if err != nil {
			return nil, &CommitError{Line: i, ProductID: productID, Err: err}
		}

		for _, alloc := range plan {
			unitPrice := alloc.Batch.SellingPrice
			if unitPrice.IsZero() {
				unitPrice = product.UnitPrice
			}
			price := PriceLine(alloc.Quantity, unitPrice, line.DiscountPct, line.TaxPct)
			pending = append(pending, pendingItem{
				line:        i,
				productID:   productID,
				productName: product.Name,
				batch:       alloc.Batch,
				quantity:    alloc.Quantity,
				unitPrice:   unitPrice,
				discountPct: line.DiscountPct,
				taxPct:      line.TaxPct,
				totalPrice:  price.Total.Round(2),
			})
		}
	}

	// Totals are sums of the persisted (rounded) item totals so that
	// total_amount == Σ item.total_price holds exactly on the stored record.
	lineTotals := make([]LinePrice, 0, len(pending))
	for _, p := range pending {
		lineTotals = append(lineTotals, LinePrice{Total: p.totalPrice})
	}
	cart := PriceCart(lineTotals, req.Discount, req.Tax)
	totalAmount := cart.ItemsTotal
	netAmount := cart.GrandTotal

	if netAmount.IsNegative() {
		return nil, ErrInvalidDiscount
	}
	if req.PaymentMethod == "cash" && req.PaidAmount.LessThan(netAmount) {
		return nil, ErrInsufficientPayment
	}

	// 3–4. Settle.
	var sale model.Sale
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Reservations applied so far in this attempt; released on failure so
		// the unwind also holds in unit-test mode where there is no real
		// transaction underneath.
		var reserved []pendingItem
		unwind := func() {
			for _, p := range reserved {
				_ = s.ledger.ReleaseTx(tx, p.batch.ID, p.quantity)
			}
		}

		for _, p := range pending {
			if err := s.ledger.ReserveTx(tx, p.batch.ID, p.quantity); err != nil {
				unwind()
				return &CommitError{Line: p.line, ProductID: p.productID, Err: err}
			}
			reserved = append(reserved, p)
		}

		invoice, err := s.repo.NextInvoiceNumber(ctx, tx)
		if err != nil {
			unwind()
			return err
		}

		sale = model.Sale{
			InvoiceNumber:   invoice,
			CustomerName:    req.CustomerName,
			CustomerContact: req.CustomerContact,
			PaymentMethod:   req.PaymentMethod,
			TotalAmount:     totalAmount,
			Discount:        req.Discount,
			Tax:             req.Tax,
			NetAmount:       netAmount,
			PaidAmount:      req.PaidAmount,
			Notes:           req.Notes,
		}
		for _, p := range pending {
			sale.Items = append(sale.Items, model.SaleItem{
				ProductID:   p.productID,
				BatchID:     p.batch.ID,
				BatchNumber: p.batch.BatchNumber,
				ExpiryDate:  p.batch.ExpiryDate,
				Quantity:    p.quantity,
				UnitPrice:   p.unitPrice,
				DiscountPct: p.discountPct,
				TaxPct:      p.taxPct,
				TotalPrice:  p.totalPrice,
			})
		}

		if err := s.repo.Create(ctx, tx, &sale); err != nil {
			unwind()
			return err
		}

		touched := make(map[uuid.UUID]struct{})
		// A batch reserved by more than one pending item loses plan-time
		// remaining after the first decrement; the running map keeps the
		// audit chain contiguous.
		running := make(map[uuid.UUID]int)
		for _, p := range pending {
			ref := sale.ID
			before, seen := running[p.batch.ID]
			if !seen {
				before = p.batch.QuantityRemaining
			}
			after := before - p.quantity
			running[p.batch.ID] = after
			if err := s.ledger.RecordMovementTx(tx, &model.StockMovement{
				ProductID:       p.productID,
				BatchID:         p.batch.ID,
				Type:            "sale",
				Quantity:        -p.quantity,
				RemainingBefore: before,
				RemainingAfter:  after,
				Reason:          fmt.Sprintf("Sale #%d", invoice),
				ReferenceID:     &ref,
			}); err != nil {
				unwind()
				return err
			}
			touched[p.productID] = struct{}{}
		}

		for productID := range touched {
			if err := s.ledger.RecalcProductStockTx(tx, productID); err != nil {
				unwind()
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Receipt PDF and classification refresh are best-effort async.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJob{SaleID: sale.ID.String()})
		_ = s.dispatcher.EnqueueABCRefresh(ctx)
	}

	resp := s.saleToResponse(&sale)
	for i, p := range pending {
		resp.Items[i].Product = p.productName
	}
	return resp, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.saleToResponse(sale), nil
}

// ListSales returns a paginated sales history, defaulting to today.
func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *s.saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *saleService) saleToResponse(sale *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ProductID:   item.ProductID.String(),
			Product:     name,
			BatchNumber: item.BatchNumber,
			ExpiryDate:  item.ExpiryDate.Format("2006-01-02"),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	change := sale.PaidAmount.Sub(sale.NetAmount)
	if change.IsNegative() {
		change = decimal.Zero
	}
	return &dto.SaleResponse{
		ID:            sale.ID.String(),
		InvoiceNumber: sale.InvoiceNumber,
		CustomerName:  sale.CustomerName,
		Items:         items,
		TotalAmount:   sale.TotalAmount,
		Discount:      sale.Discount,
		Tax:           sale.Tax,
		NetAmount:     sale.NetAmount,
		PaidAmount:    sale.PaidAmount,
		Change:        change,
		PaymentMethod: sale.PaymentMethod,
		CreatedAt:     sale.CreatedAt.UTC().Format(time.RFC3339),
	}
}
