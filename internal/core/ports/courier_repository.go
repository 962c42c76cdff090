// Package ports defines the contracts between the dispatch core and its
// infrastructure adapters: repositories, the unit of work, the notification
// sender and the offer scheduler.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for courier aggregates.
type CourierRepository interface {
	// Add persists a new courier aggregate to storage.
	Add(ctx context.Context, courier *courier.Courier) error

	// UpdateGuarded persists the courier's availability only if the stored
	// row still holds the expected availability. It writes the availability
	// field alone, never the whole row, so a concurrent position report is
	// never overwritten. It returns false when another writer moved the
	// courier first, which callers treat as losing the race. The check and
	// the write are a single conditional update against storage.
	UpdateGuarded(ctx context.Context, courier *courier.Courier, expected courier.Availability) (bool, error)

	// UpdatePosition persists the courier's last reported position and its
	// timestamp, leaving every other field untouched.
	UpdatePosition(ctx context.Context, courier *courier.Courier) error

	// Get retrieves a courier aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetAllAvailable retrieves couriers eligible for matching: Available,
	// active, with a known position, and not in the exclusion set.
	//
	// Example:
	//
	//	candidates, err := repo.GetAllAvailable(ctx, ord.ExcludedCouriers())
	//	if err != nil {
	//	    return fmt.Errorf("failed to get candidates: %w", err)
	//	}
	GetAllAvailable(ctx context.Context, excluding []kernel.UUID) ([]*courier.Courier, error)
}
