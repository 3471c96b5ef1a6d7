package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pharmazine/internal/dto"
	"pharmazine/internal/model"
	"pharmazine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repository implementations. The mutex-guarded conditional updates
// mirror the guarded SQL statements of the real repositories, so the atomic
// check-and-decrement semantics hold in unit tests too.

type stubBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*model.Batch
}

func newStubBatchRepo() *stubBatchRepo {
	return &stubBatchRepo{batches: make(map[uuid.UUID]*model.Batch)}
}

func (r *stubBatchRepo) add(b *model.Batch) *model.Batch {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = b
	return b
}

func (r *stubBatchRepo) Create(_ context.Context, b *model.Batch) error {
	r.add(b)
	return nil
}

func (r *stubBatchRepo) CreateTx(_ *gorm.DB, b *model.Batch) error {
	r.add(b)
	return nil
}

func (r *stubBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *stubBatchRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubBatchRepo) ListEligible(_ context.Context, productID uuid.UUID, today time.Time) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Batch
	for _, b := range r.batches {
		if b.ProductID == productID && b.Eligible(today) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].BatchNumber < out[j].BatchNumber
	})
	return out, nil
}

func (r *stubBatchRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Batch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchNumber < out[j].BatchNumber })
	return out, nil
}

func (r *stubBatchRepo) ListExpiring(_ context.Context, today time.Time, withinDays int) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit := today.AddDate(0, 0, withinDays)
	var out []model.Batch
	for _, b := range r.batches {
		if b.Eligible(today) && !b.ExpiryDate.After(limit) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

func (r *stubBatchRepo) ReserveTx(_ *gorm.DB, batchID uuid.UUID, qty int, today time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok || !b.Active || b.QuantityRemaining < qty || b.Expired(today) {
		return 0, nil
	}
	b.QuantityRemaining -= qty
	b.QuantitySold += qty
	return 1, nil
}

func (r *stubBatchRepo) ReleaseTx(_ *gorm.DB, batchID uuid.UUID, qty int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok || b.QuantitySold < qty {
		return 0, nil
	}
	b.QuantityRemaining += qty
	b.QuantitySold -= qty
	return 1, nil
}

func (r *stubBatchRepo) WriteOffTx(_ *gorm.DB, batchID uuid.UUID, qty int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok || b.QuantityRemaining < qty {
		return 0, nil
	}
	b.QuantityRemaining -= qty
	return 1, nil
}

func (r *stubBatchRepo) DB() *gorm.DB { return nil }

var _ repository.BatchRepository = (*stubBatchRepo)(nil)

// stubProductRepo recomputes the cached aggregate from the batch stub so the
// derived-cache behavior is observable in tests.
type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	batches  *stubBatchRepo
}

func newStubProductRepo(batches *stubBatchRepo) *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product), batches: batches}
}

func (r *stubProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Active = true
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.add(p)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (r *stubProductRepo) LowStock(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.Active && p.StockQuantity <= p.ReorderLevel {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockQuantity < out[j].StockQuantity })
	return out, nil
}

func (r *stubProductRepo) RecalcStockTx(_ *gorm.DB, productID uuid.UUID) error {
	r.batches.mu.Lock()
	sum := 0
	for _, b := range r.batches.batches {
		if b.ProductID == productID && b.Active {
			sum += b.QuantityRemaining
		}
	}
	r.batches.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return errors.New("product not found")
	}
	p.StockQuantity = sum
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, _ int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// stubSaleRepo captures created sales; failCreate injects a persistence
// failure after reservations have been applied, for atomicity tests.
type stubSaleRepo struct {
	mu         sync.Mutex
	sales      map[uuid.UUID]*model.Sale
	invoiceSeq int
	failCreate bool
	revenue    []repository.ProductRevenue
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("injected persistence failure")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) NextInvoiceNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoiceSeq++
	return r.invoiceSeq, nil
}

func (r *stubSaleRepo) List(_ context.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) RevenueByProduct(_ context.Context, _ time.Time) ([]repository.ProductRevenue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.ProductRevenue, len(r.revenue))
	copy(out, r.revenue)
	return out, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Shared fixture helpers ────────────────────────────────────────────────────

type fixture struct {
	batches   *stubBatchRepo
	products  *stubProductRepo
	movements *stubMovementRepo
	sales     *stubSaleRepo
	ledger    LedgerService
	allocator Allocator
	saleSvc   SaleService
}

func newFixture() *fixture {
	batches := newStubBatchRepo()
	products := newStubProductRepo(batches)
	movements := &stubMovementRepo{}
	sales := newStubSaleRepo()
	ledger := NewLedgerService(batches, products, movements)
	alloc := NewAllocator(ledger)
	return &fixture{
		batches:   batches,
		products:  products,
		movements: movements,
		sales:     sales,
		ledger:    ledger,
		allocator: alloc,
		saleSvc:   NewSaleService(sales, products, alloc, ledger, nil),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
