package worker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const (
	QueueReceipt    = "jobs:receipt"
	QueueABCRefresh = "jobs:abc_refresh"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReceiptJob asks for a PDF receipt of a committed sale.
type ReceiptJob struct {
	SaleID string `json:"sale_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt pushes a receipt PDF job.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, payload ReceiptJob) error {
	return d.enqueue(ctx, QueueReceipt, "receipt", payload)
}

// EnqueueABCRefresh asks the pool to recompute the ABC classification cache.
func (d *Dispatcher) EnqueueABCRefresh(ctx context.Context) error {
	return d.enqueue(ctx, QueueABCRefresh, "abc_refresh", struct{}{})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d.rdb == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}
