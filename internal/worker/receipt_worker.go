package worker

// receipt_worker.go
// Generates PDF receipts for committed sales from QueueReceipt. Failed jobs
// land in dlq:jobs:receipt for manual inspection — the sale itself is already
// durable, so a receipt can be regenerated from the DLQ entry at any time.

import (
	"context"
	"fmt"

	"pharmazine/internal/infra"
	"pharmazine/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ReceiptWorker struct {
	sales       repository.SaleRepository
	storagePath string
}

func NewReceiptWorker(sales repository.SaleRepository, storagePath string) *ReceiptWorker {
	return &ReceiptWorker{sales: sales, storagePath: storagePath}
}

func (w *ReceiptWorker) Process(ctx context.Context, job ReceiptJob) error {
	saleID, err := uuid.Parse(job.SaleID)
	if err != nil {
		return fmt.Errorf("invalid sale_id %q: %w", job.SaleID, err)
	}
	sale, err := w.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("load sale: %w", err)
	}
	path, err := infra.GenerateReceiptPDF(sale, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Int("invoice", sale.InvoiceNumber).Str("path", path).Msg("receipt generated")
	return nil
}
