package repository

import (
	"context"
	"time"

	"pharmazine/internal/dto"
	"pharmazine/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductRevenue is one row of the date-bounded sales aggregation feeding the
// ABC classifier.
type ProductRevenue struct {
	ProductID    uuid.UUID
	SKU          string
	Name         string
	CurrentStock int
	TotalSold    int
	TotalRevenue decimal.Decimal
}

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	NextInvoiceNumber(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)

	// RevenueByProduct aggregates committed sale items per product since the
	// given instant. Products with no sales in the window are omitted.
	RevenueByProduct(ctx context.Context, since time.Time) ([]ProductRevenue, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items.Product").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) NextInvoiceNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	// PostgreSQL sequence for atomic invoice number generation
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_invoice_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items.Product").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepo) RevenueByProduct(ctx context.Context, since time.Time) ([]ProductRevenue, error) {
	var rows []ProductRevenue
	err := r.db.WithContext(ctx).
		Table("sale_items").
		Select(`sale_items.product_id,
			products.sku,
			products.name,
			products.stock_quantity AS current_stock,
			COALESCE(SUM(sale_items.quantity), 0) AS total_sold,
			COALESCE(SUM(sale_items.total_price), 0) AS total_revenue`).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sales.created_at >= ?", since).
		Group("sale_items.product_id, products.sku, products.name, products.stock_quantity").
		Scan(&rows).Error
	return rows, err
}
