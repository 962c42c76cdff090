package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderGuard is the expected live state a guarded save compares against.
// CourierID nil means "expected no holder".
type OrderGuard struct {
	Status    order.Status
	CourierID *kernel.UUID
	Attempt   int
}

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate without a
	// state guard. Used only for transitions that cannot race: creation
	// side fields and the Pending/Confirmed phase.
	Update(ctx context.Context, aggregate *order.Order) error

	// UpdateGuarded persists the aggregate only if the stored row still
	// matches the expected status, holder and attempt. It returns false
	// when another writer already resolved the state, which callers treat
	// as a benign no-op. The check and the write are a single conditional
	// update against storage, not a read-then-write.
	UpdateGuarded(ctx context.Context, aggregate *order.Order, expected OrderGuard) (bool, error)

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetFirstInStatus retrieves the oldest order in any of the given
	// statuses. The dispatch sweep uses it to find confirmed orders
	// awaiting their first attempt, and Searching orders whose follow-up
	// attempt was lost to a crash between release and re-dispatch.
	GetFirstInStatus(ctx context.Context, statuses ...order.Status) (*order.Order, error)

	// GetAssignedBefore retrieves orders still in Assigned whose offer was
	// armed before the cutoff. The stale-offer sweep uses it to recover
	// response timers lost to a process restart.
	GetAssignedBefore(ctx context.Context, cutoff time.Time) ([]*order.Order, error)
}
