package repository

import (
	"context"
	"time"

	"pharmazine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchRepository owns all reads and writes against stock batches. The
// reserve, release and write-off operations are conditional single-statement
// updates so the check-then-decrement is atomic per batch row — two commits
// racing for the same batch serialize on the row, commits against disjoint
// batches proceed independently.
type BatchRepository interface {
	Create(ctx context.Context, b *model.Batch) error
	CreateTx(tx *gorm.DB, b *model.Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Batch, error)

	// ListEligible returns batches with quantity_remaining > 0 and
	// expiry_date >= today, ordered by expiry_date ASC then batch_number ASC.
	ListEligible(ctx context.Context, productID uuid.UUID, today time.Time) ([]model.Batch, error)

	// ListByProduct returns every batch of a product, eligible or not.
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Batch, error)

	// ListExpiring returns non-exhausted batches expiring within the window
	// (today inclusive), soonest first.
	ListExpiring(ctx context.Context, today time.Time, withinDays int) ([]model.Batch, error)

	// ReserveTx decrements quantity_remaining and increments quantity_sold in
	// one guarded statement. Returns the number of rows updated: 0 means the
	// batch is missing, expired, or short of stock — the caller disambiguates.
	ReserveTx(tx *gorm.DB, batchID uuid.UUID, qty int, today time.Time) (int64, error)

	// ReleaseTx is the exact inverse of ReserveTx, used only when unwinding a
	// failed settlement.
	ReleaseTx(tx *gorm.DB, batchID uuid.UUID, qty int) (int64, error)

	// WriteOffTx decrements quantity_remaining without touching quantity_sold.
	// Expired batches may be written off; short stock still blocks it.
	WriteOffTx(tx *gorm.DB, batchID uuid.UUID, qty int) (int64, error)

	DB() *gorm.DB
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) Create(ctx context.Context, b *model.Batch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *batchRepo) CreateTx(tx *gorm.DB, b *model.Batch) error {
	return tx.Create(b).Error
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var b model.Batch
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	return &b, err
}

func (r *batchRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	var b model.Batch
	err := tx.First(&b, "id = ?", id).Error
	return &b, err
}

func (r *batchRepo) ListEligible(ctx context.Context, productID uuid.UUID, today time.Time) ([]model.Batch, error) {
	var batches []model.Batch
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND active = true AND quantity_remaining > 0 AND expiry_date >= ?",
			productID, dateOnly(today)).
		Order("expiry_date ASC, batch_number ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Batch, error) {
	var batches []model.Batch
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("expiry_date ASC, batch_number ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ListExpiring(ctx context.Context, today time.Time, withinDays int) ([]model.Batch, error) {
	var batches []model.Batch
	from := dateOnly(today)
	to := from.AddDate(0, 0, withinDays)
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("active = true AND quantity_remaining > 0 AND expiry_date >= ? AND expiry_date <= ?", from, to).
		Order("expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ReserveTx(tx *gorm.DB, batchID uuid.UUID, qty int, today time.Time) (int64, error) {
	res := tx.Model(&model.Batch{}).
		Where("id = ? AND active = true AND quantity_remaining >= ? AND expiry_date >= ?",
			batchID, qty, dateOnly(today)).
		Updates(map[string]interface{}{
			"quantity_remaining": gorm.Expr("quantity_remaining - ?", qty),
			"quantity_sold":      gorm.Expr("quantity_sold + ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *batchRepo) ReleaseTx(tx *gorm.DB, batchID uuid.UUID, qty int) (int64, error) {
	res := tx.Model(&model.Batch{}).
		Where("id = ? AND quantity_sold >= ?", batchID, qty).
		Updates(map[string]interface{}{
			"quantity_remaining": gorm.Expr("quantity_remaining + ?", qty),
			"quantity_sold":      gorm.Expr("quantity_sold - ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *batchRepo) WriteOffTx(tx *gorm.DB, batchID uuid.UUID, qty int) (int64, error) {
	res := tx.Model(&model.Batch{}).
		Where("id = ? AND quantity_remaining >= ?", batchID, qty).
		Update("quantity_remaining", gorm.Expr("quantity_remaining - ?", qty))
	return res.RowsAffected, res.Error
}

func (r *batchRepo) DB() *gorm.DB { return r.db }

// dateOnly truncates to midnight UTC so expiry comparisons are calendar-day
// comparisons regardless of the wall clock.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
