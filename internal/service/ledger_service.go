package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmazine/internal/dto"
	"pharmazine/internal/model"
	"pharmazine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService owns the batch stock ledger: eligibility queries, goods
// receipt, reservation and write-off. Every mutation updates the owning
// product's cached aggregate stock in the same transaction — callers never
// see a window where the cache and the batch sum disagree.
type LedgerService interface {
	ListEligibleBatches(ctx context.Context, productID uuid.UUID) ([]model.Batch, error)
	ListBatches(ctx context.Context, productID uuid.UUID) ([]model.Batch, error)
	ReceiveBatch(ctx context.Context, req dto.ReceiveBatchRequest) (*model.Batch, error)
	ReserveQuantity(ctx context.Context, batchID uuid.UUID, qty int) error
	WriteOff(ctx context.Context, batchID uuid.UUID, qty int, reason string) error
	ExpiringBatches(ctx context.Context, withinDays int) ([]dto.ExpiryAlert, error)
	LowStockProducts(ctx context.Context) ([]dto.LowStockAlert, error)

	// ReserveTx and ReleaseTx run inside a caller-owned transaction. The sale
	// settlement is the only sale-driven caller; everything else goes through
	// ReserveQuantity / WriteOff.
	ReserveTx(tx *gorm.DB, batchID uuid.UUID, qty int) error
	ReleaseTx(tx *gorm.DB, batchID uuid.UUID, qty int) error
	RecordMovementTx(tx *gorm.DB, m *model.StockMovement) error
	RecalcProductStockTx(tx *gorm.DB, productID uuid.UUID) error
}

type ledgerService struct {
	batches     repository.BatchRepository
	products    repository.ProductRepository
	movements   repository.StockMovementRepository
	now         func() time.Time
}

func NewLedgerService(
	batches repository.BatchRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
) LedgerService {
	return &ledgerService{
		batches:   batches,
		products:  products,
		movements: movements,
		now:       time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ListEligibleBatches returns the batches a sale may draw from, earliest
// expiry first. An empty slice — not an error — when none qualify.
func (s *ledgerService) ListEligibleBatches(ctx context.Context, productID uuid.UUID) ([]model.Batch, error) {
	return s.batches.ListEligible(ctx, productID, s.now())
}

func (s *ledgerService) ListBatches(ctx context.Context, productID uuid.UUID) ([]model.Batch, error) {
	return s.batches.ListByProduct(ctx, productID)
}

// ReceiveBatch creates a batch from a goods receipt. The new lot opens with
// quantity_received == quantity_remaining and zero sold.
func (s *ledgerService) ReceiveBatch(ctx context.Context, req dto.ReceiveBatchRequest) (*model.Batch, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil || !product.Active {
		return nil, ErrProductNotFound
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry_date: %w", err)
	}
	var manufacture *time.Time
	if req.ManufactureDate != nil {
		m, err := time.Parse("2006-01-02", *req.ManufactureDate)
		if err != nil {
			return nil, fmt.Errorf("invalid manufacture_date: %w", err)
		}
		manufacture = &m
	}

	batch := &model.Batch{
		ProductID:         productID,
		BatchNumber:       req.BatchNumber,
		ExpiryDate:        expiry,
		ManufactureDate:   manufacture,
		QuantityReceived:  req.Quantity,
		QuantityRemaining: req.Quantity,
		PurchasePrice:     req.PurchasePrice,
		SellingPrice:      req.SellingPrice,
		MRP:               req.MRP,
		Active:            true,
	}

	txErr := runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		if err := s.createBatch(ctx, tx, batch); err != nil {
			return err
		}
		if err := s.RecordMovementTx(tx, &model.StockMovement{
			ProductID:       productID,
			BatchID:         batch.ID,
			Type:            "goods_receipt",
			Quantity:        req.Quantity,
			RemainingBefore: 0,
			RemainingAfter:  req.Quantity,
			Reason:          fmt.Sprintf("GRN batch %s", req.BatchNumber),
		}); err != nil {
			return err
		}
		return s.RecalcProductStockTx(tx, productID)
	})
	if txErr != nil {
		return nil, txErr
	}
	return batch, nil
}

func (s *ledgerService) createBatch(ctx context.Context, tx *gorm.DB, b *model.Batch) error {
	if tx == nil {
		return s.batches.Create(ctx, b)
	}
	return s.batches.CreateTx(tx, b)
}

// ReserveQuantity validates and applies a standalone reservation, outside a
// sale settlement. The check and the decrement are one guarded statement.
func (s *ledgerService) ReserveQuantity(ctx context.Context, batchID uuid.UUID, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		if err := s.ReserveTx(tx, batchID, qty); err != nil {
			return err
		}
		batch, err := s.findBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}
		if err := s.RecordMovementTx(tx, &model.StockMovement{
			ProductID:       batch.ProductID,
			BatchID:         batchID,
			Type:            "sale",
			Quantity:        -qty,
			RemainingBefore: batch.QuantityRemaining + qty,
			RemainingAfter:  batch.QuantityRemaining,
			Reason:          "manual reservation",
		}); err != nil {
			return err
		}
		return s.RecalcProductStockTx(tx, batch.ProductID)
	})
}

// ReserveTx applies the atomic check-and-decrement. A zero-row update is
// disambiguated by re-reading the batch: missing, expired, or short of stock.
func (s *ledgerService) ReserveTx(tx *gorm.DB, batchID uuid.UUID, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	rows, err := s.batches.ReserveTx(tx, batchID, qty, s.now())
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.classifyReserveFailure(tx, batchID, qty)
	}
	return nil
}

func (s *ledgerService) classifyReserveFailure(tx *gorm.DB, batchID uuid.UUID, qty int) error {
	batch, err := s.findBatch(context.Background(), tx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBatchNotFound
		}
		return err
	}
	if !batch.Active {
		return ErrBatchNotFound
	}
	if batch.Expired(s.now()) {
		return ErrBatchExpired
	}
	return ErrInsufficientStock
}

func (s *ledgerService) findBatch(ctx context.Context, tx *gorm.DB, batchID uuid.UUID) (*model.Batch, error) {
	if tx == nil {
		return s.batches.FindByID(ctx, batchID)
	}
	return s.batches.FindByIDTx(tx, batchID)
}

// ReleaseTx undoes a reservation made earlier in the same settlement attempt.
func (s *ledgerService) ReleaseTx(tx *gorm.DB, batchID uuid.UUID, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	_, err := s.batches.ReleaseTx(tx, batchID, qty)
	return err
}

// WriteOff removes waste/damage stock from a batch. quantity_sold is not
// touched — the movement audit row is the waste record.
func (s *ledgerService) WriteOff(ctx context.Context, batchID uuid.UUID, qty int, reason string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		rows, err := s.batches.WriteOffTx(tx, batchID, qty)
		if err != nil {
			return err
		}
		batch, err := s.findBatch(ctx, tx, batchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBatchNotFound
			}
			return err
		}
		if rows == 0 {
			return ErrInsufficientStock
		}
		if err := s.RecordMovementTx(tx, &model.StockMovement{
			ProductID:       batch.ProductID,
			BatchID:         batchID,
			Type:            "write_off",
			Quantity:        -qty,
			RemainingBefore: batch.QuantityRemaining + qty,
			RemainingAfter:  batch.QuantityRemaining,
			Reason:          reason,
		}); err != nil {
			return err
		}
		return s.RecalcProductStockTx(tx, batch.ProductID)
	})
}

func (s *ledgerService) RecordMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return s.movements.CreateTx(tx, m)
}

func (s *ledgerService) RecalcProductStockTx(tx *gorm.DB, productID uuid.UUID) error {
	return s.products.RecalcStockTx(tx, productID)
}

// ExpiringBatches returns still-sellable batches whose expiry falls within
// the window, soonest first.
func (s *ledgerService) ExpiringBatches(ctx context.Context, withinDays int) ([]dto.ExpiryAlert, error) {
	if withinDays <= 0 {
		withinDays = 30
	}
	today := s.now()
	batches, err := s.batches.ListExpiring(ctx, today, withinDays)
	if err != nil {
		return nil, err
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	alerts := make([]dto.ExpiryAlert, 0, len(batches))
	for _, b := range batches {
		name := ""
		if b.Product != nil {
			name = b.Product.Name
		}
		exp := time.Date(b.ExpiryDate.Year(), b.ExpiryDate.Month(), b.ExpiryDate.Day(), 0, 0, 0, 0, time.UTC)
		alerts = append(alerts, dto.ExpiryAlert{
			BatchID:           b.ID.String(),
			ProductID:         b.ProductID.String(),
			ProductName:       name,
			BatchNumber:       b.BatchNumber,
			ExpiryDate:        b.ExpiryDate.Format("2006-01-02"),
			QuantityRemaining: b.QuantityRemaining,
			DaysUntilExpiry:   int(exp.Sub(day).Hours() / 24),
		})
	}
	return alerts, nil
}

func (s *ledgerService) LowStockProducts(ctx context.Context) ([]dto.LowStockAlert, error) {
	products, err := s.products.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlert, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, dto.LowStockAlert{
			ProductID:     p.ID.String(),
			SKU:           p.SKU,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
			ReorderLevel:  p.ReorderLevel,
		})
	}
	return alerts, nil
}
