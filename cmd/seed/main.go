// Command seed loads a small demo catalog: a handful of products, each with
// batches at staggered expiry dates, so the allocation preview and checkout
// flows can be exercised against a fresh database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pharmazine/internal/config"
	"pharmazine/internal/dto"
	"pharmazine/internal/infra"
	"pharmazine/internal/model"
	"pharmazine/internal/repository"
	"pharmazine/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	ledger := service.NewLedgerService(batchRepo, productRepo, movementRepo)

	ctx := context.Background()
	today := time.Now()

	products := []struct {
		sku, name string
		price     string
		batches   []struct {
			number string
			months int // expiry offset from today
			qty    int
		}
	}{
		{"PARA-500", "Paracetamol 500mg", "2.50", []struct {
			number string
			months int
			qty    int
		}{{"P24-001", 2, 120}, {"P24-002", 6, 300}}},
		{"AMOX-250", "Amoxicillin 250mg", "8.90", []struct {
			number string
			months int
			qty    int
		}{{"A24-010", 1, 40}, {"A24-011", 4, 90}, {"A24-012", 9, 200}}},
		{"IBU-400", "Ibuprofen 400mg", "4.20", []struct {
			number string
			months int
			qty    int
		}{{"I24-007", 3, 150}}},
	}

	for _, p := range products {
		price, _ := decimal.NewFromString(p.price)
		product := &model.Product{
			SKU:          p.sku,
			Name:         p.name,
			UnitPrice:    price,
			CostPrice:    price.Mul(decimal.NewFromFloat(0.6)).Round(2),
			ReorderLevel: 25,
			Active:       true,
		}
		if err := productRepo.Create(ctx, product); err != nil {
			log.Warn().Str("sku", p.sku).Err(err).Msg("product exists, skipping")
			continue
		}

		for _, b := range p.batches {
			expiry := today.AddDate(0, b.months, 0).Format("2006-01-02")
			if _, err := ledger.ReceiveBatch(ctx, dto.ReceiveBatchRequest{
				ProductID:     product.ID.String(),
				BatchNumber:   b.number,
				ExpiryDate:    expiry,
				Quantity:      b.qty,
				PurchasePrice: product.CostPrice,
				SellingPrice:  product.UnitPrice,
				MRP:           product.UnitPrice.Mul(decimal.NewFromFloat(1.1)).Round(2),
			}); err != nil {
				log.Fatal().Str("batch", b.number).Err(err).Msg("failed to receive batch")
			}
		}
		log.Info().Str("sku", p.sku).Int("batches", len(p.batches)).Msg("seeded")
	}

	fmt.Println("seed complete")
}
