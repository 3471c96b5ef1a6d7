package service

import (
	"context"

	"pharmazine/internal/model"

	"github.com/google/uuid"
)

// BatchAllocation is one (batch, quantity) element of an allocation plan.
type BatchAllocation struct {
	Batch    model.Batch
	Quantity int
}

// Allocator plans which batches a requested quantity will draw from, under
// FEFO: earliest expiry first. Planning is read-only — reservation happens at
// settlement so an open cart never holds stock hostage.
type Allocator interface {
	Allocate(ctx context.Context, productID uuid.UUID, requestedQty int) ([]BatchAllocation, error)
}

type allocator struct {
	ledger LedgerService
}

func NewAllocator(ledger LedgerService) Allocator {
	return &allocator{ledger: ledger}
}

// Allocate walks the eligible batches in expiry order, greedily taking
// min(still needed, batch remaining) from each. All-or-nothing: when the
// combined eligible stock is short of the request, the result is ErrOutOfStock
// and no partial plan.
func (a *allocator) Allocate(ctx context.Context, productID uuid.UUID, requestedQty int) ([]BatchAllocation, error) {
	if requestedQty <= 0 {
		return nil, ErrInvalidQuantity
	}

	batches, err := a.ledger.ListEligibleBatches(ctx, productID)
	if err != nil {
		return nil, err
	}

	plan := make([]BatchAllocation, 0, len(batches))
	needed := requestedQty
	for _, b := range batches {
		if needed == 0 {
			break
		}
		take := needed
		if b.QuantityRemaining < take {
			take = b.QuantityRemaining
		}
		plan = append(plan, BatchAllocation{Batch: b, Quantity: take})
		needed -= take
	}
	if needed > 0 {
		return nil, ErrOutOfStock
	}
	return plan, nil
}
