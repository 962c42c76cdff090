package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// releaseAttempt is the shared resolution path for Reject and TimerFire
// winning the race on an Assigned order: the courier joins the exclusion
// set, the assignment is cleared, the order returns to Searching and the
// courier becomes Available again - all under the attempt's state guard.
//
// expectAttempt is non-nil for timer events, which are scoped to the exact
// attempt they were armed for; API rejections resolve the current attempt.
//
// Returns the released order, the courier that held it, and the attempt
// number that was resolved, or ErrAlreadyResolved when another event got
// there first.
func releaseAttempt(
	ctx context.Context,
	uow UoW,
	orderID, courierID kernel.UUID,
	expectAttempt *int,
) (*order.Order, *courier.Courier, int, error) {
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	ord, err := orderRepo.Get(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil, 0, ErrNoOrderFound
	}
	if err != nil {
		return nil, nil, 0, err
	}

	if ord.Status() != order.Assigned {
		return nil, nil, 0, ErrAlreadyResolved
	}
	if expectAttempt != nil && *expectAttempt != ord.AttemptCount() {
		return nil, nil, 0, ErrAlreadyResolved
	}

	expected := guardSnapshot(ord)
	resolvedAttempt := ord.AttemptCount()

	if err = ord.Release(courierID); err != nil {
		if errors.Is(err, order.ErrCourierIsNotHolder) {
			return nil, nil, 0, ErrAlreadyResolved
		}
		return nil, nil, 0, err
	}

	saved, err := orderRepo.UpdateGuarded(ctx, ord, expected)
	if err != nil {
		return nil, nil, 0, err
	}
	if !saved {
		return nil, nil, 0, ErrAlreadyResolved
	}

	holder, err := releaseCourier(ctx, uow.CourierRepository(), courierID)
	if err != nil {
		return nil, nil, 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, 0, err
	}

	return ord, holder, resolvedAttempt, nil
}

// releaseCourier sets the courier back to Available. A courier that is not
// Busy at this point was already released elsewhere; that is not an error.
func releaseCourier(ctx context.Context, repo ports.CourierRepository, courierID kernel.UUID) (*courier.Courier, error) {
	c, err := repo.Get(ctx, courierID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, ErrNoCourierFound
	}
	if err != nil {
		return nil, err
	}

	if c.Availability() != courier.Busy {
		return c, nil
	}
	if err = c.Release(); err != nil {
		return nil, err
	}

	// Conditional on still being Busy, writing the availability field only,
	// so a position ping that raced this release keeps its write. A lost
	// condition means another writer already released the courier; like the
	// not-Busy case above, that is not an error.
	if _, err = repo.UpdateGuarded(ctx, c, courier.Busy); err != nil {
		return nil, err
	}

	return c, nil
}
