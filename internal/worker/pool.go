package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers bundles the concrete job processors wired at the composition root.
type Handlers struct {
	Receipt *ReceiptWorker
	ABC     *ABCWorker
}

// StartPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int) {
	queues := []string{QueueReceipt, QueueABCRefresh}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(raw), "unmarshal: "+err.Error(), 1)
		return
	}

	switch queue {
	case QueueReceipt:
		if handlers.Receipt == nil {
			return
		}
		var payload ReceiptJob
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("invalid receipt payload")
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "invalid payload: "+err.Error(), 1)
			return
		}
		if err := handlers.Receipt.Process(ctx, payload); err != nil {
			log.Error().Str("sale_id", payload.SaleID).Err(err).Msg("receipt job failed")
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), 1)
		}
	case QueueABCRefresh:
		if handlers.ABC == nil {
			return
		}
		if err := handlers.ABC.Process(ctx); err != nil {
			log.Error().Err(err).Msg("abc refresh job failed")
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), 1)
		}
	default:
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("unknown job queue")
	}
}
