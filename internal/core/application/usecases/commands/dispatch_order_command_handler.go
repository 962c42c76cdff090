package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// DispatchOrderCommandHandler runs one assignment attempt for an order:
// it searches for the nearest eligible courier, assigns atomically, and
// arms the response timer for the new offer.
//
// The handler resolves the dispatch races with a guarded conditional save:
// the order row is only written if it still matches the state observed at
// load time. A failed guard means another writer (an accept, a reject, a
// timeout or a competing dispatch) won, and the call resolves to
// ErrAlreadyResolved without side effects.
//
// Example:
//
//	handler := NewDispatchOrderCommandHandler(uowFactory, selector, notifier,
//	    scheduler, pickup, 5, logger)
//	cmd, _ := NewDispatchOrderCommand(orderID)
//	err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, ErrNoCourierAvailable):
//	    // order terminated, customer notified
//	case errors.Is(err, ErrAlreadyResolved):
//	    // someone else moved the order; nothing to do
//	case err != nil:
//	    log.Printf("dispatch failed: %v", err)
//	}
type DispatchOrderCommandHandler struct {
	uowFactory  UoWFactory
	selector    services.CourierSelector
	notifier    ports.NotificationSender
	scheduler   ports.OfferScheduler
	pickup      kernel.GeoPoint
	maxAttempts int
	logger      *slog.Logger
}

// NewDispatchOrderCommandHandler creates a handler for dispatch attempts.
// pickup is the deployment's fixed restaurant location; maxAttempts is the
// retry ceiling after which orders terminate as Rejected.
func NewDispatchOrderCommandHandler(
	uowFactory UoWFactory,
	selector services.CourierSelector,
	notifier ports.NotificationSender,
	scheduler ports.OfferScheduler,
	pickup kernel.GeoPoint,
	maxAttempts int,
	logger *slog.Logger,
) DispatchOrderCommandHandler {
	return DispatchOrderCommandHandler{
		uowFactory:  uowFactory,
		selector:    selector,
		notifier:    notifier,
		scheduler:   scheduler,
		pickup:      pickup,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "dispatch_handler"),
	}
}

// Handle processes one dispatch attempt.
//
// Outcomes:
//   - nil: a courier was assigned, notified and the response timer armed
//   - ErrNoCourierAvailable / ErrRetryCeilingExceeded: order terminated as
//     Rejected, customer notified
//   - ErrAlreadyResolved: the order is not searchable (already assigned or
//     terminal) or a concurrent writer won the guarded save
func (h DispatchOrderCommandHandler) Handle(ctx context.Context, command DispatchOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	courierRepo := uow.CourierRepository()

	ord, err := orderRepo.Get(ctx, command.OrderID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ErrNoOrderFound
	}
	if err != nil {
		return err
	}

	if ord.Status() != order.Confirmed && ord.Status() != order.Searching {
		return ErrAlreadyResolved
	}

	// Snapshot of the live state the guarded save will compare against.
	expected := guardSnapshot(ord)

	if err = ord.StartSearch(); err != nil {
		return err
	}

	if ord.AttemptCount() >= h.maxAttempts {
		return h.terminate(ctx, uow, orderRepo, ord, expected, ErrRetryCeilingExceeded)
	}

	candidates, err := courierRepo.GetAllAvailable(ctx, ord.ExcludedCouriers())
	if err != nil {
		return err
	}

	best, err := h.claimNearest(ctx, courierRepo, candidates)
	if errors.Is(err, services.ErrCourierNotFound) {
		return h.terminate(ctx, uow, orderRepo, ord, expected, ErrNoCourierAvailable)
	}
	if err != nil {
		return err
	}

	if err = ord.Assign(best.ID()); err != nil {
		return err
	}

	// If this guard fails the rollback also undoes the courier claim; both
	// writes live in the same transaction.
	saved, err := orderRepo.UpdateGuarded(ctx, ord, expected)
	if err != nil {
		return err
	}
	if !saved {
		return ErrAlreadyResolved
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order assigned",
		"order_id", ord.ID().String(),
		"courier_id", best.ID().String(),
		"attempt", ord.AttemptCount())

	h.notifyOffer(ctx, best, ord)
	h.scheduler.Arm(ord.ID(), best.ID(), ord.AttemptCount())

	return nil
}

// claimNearest selects the best candidate and claims it with a conditional
// Available-to-Busy write. Each order's guarded save protects only its own
// row, so two concurrent dispatches of different orders would otherwise both
// read the same courier as Available and double-book it; the claim makes the
// courier row itself the arbiter. A candidate lost to a concurrent dispatch
// drops out and selection re-runs on the remaining candidates.
func (h DispatchOrderCommandHandler) claimNearest(
	ctx context.Context,
	courierRepo ports.CourierRepository,
	candidates []*courier.Courier,
) (*courier.Courier, error) {
	for {
		best, _, err := h.selector.SelectNearest(ctx, h.pickup, candidates)
		if err != nil {
			return nil, err
		}

		if err = best.MarkBusy(); err != nil {
			return nil, err
		}

		claimed, err := courierRepo.UpdateGuarded(ctx, best, courier.Available)
		if err != nil {
			return nil, err
		}
		if claimed {
			return best, nil
		}

		h.logger.DebugContext(ctx, "courier claimed by concurrent dispatch",
			"courier_id", best.ID().String())

		remaining := candidates[:0]
		for _, c := range candidates {
			if !c.IsEqual(best) {
				remaining = append(remaining, c)
			}
		}
		candidates = remaining
	}
}

// terminate moves the order to Rejected under the same guard as assignment
// and notifies the customer with the reason-specific message.
func (h DispatchOrderCommandHandler) terminate(
	ctx context.Context,
	uow UoW,
	orderRepo ports.OrderRepository,
	ord *order.Order,
	expected ports.OrderGuard,
	reason error,
) error {
	if err := ord.MarkRejected(); err != nil {
		return err
	}

	saved, err := orderRepo.UpdateGuarded(ctx, ord, expected)
	if err != nil {
		return err
	}
	if !saved {
		return ErrAlreadyResolved
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	kind := ports.CustomerEventNoCouriers
	if errors.Is(reason, ErrRetryCeilingExceeded) {
		kind = ports.CustomerEventRetryCeiling
	}

	h.logger.WarnContext(ctx, "order rejected",
		"order_id", ord.ID().String(),
		"reason", reason.Error(),
		"attempts", ord.AttemptCount())

	h.notifyCustomer(ctx, ord, kind)
	return reason
}

// notifyOffer pushes the offer to the courier. Best effort: failures are
// logged and never propagate into the state machine.
func (h DispatchOrderCommandHandler) notifyOffer(ctx context.Context, c *courier.Courier, ord *order.Order) {
	if err := h.notifier.NotifyCourierOffer(ctx, c, ports.OrderSummary{
		OrderID:    ord.ID(),
		DistanceKm: ord.DistanceKm(),
		EtaMinutes: ord.EtaMinutes(),
		Earnings:   ord.Earnings(),
	}); err != nil {
		h.logger.WarnContext(ctx, "courier offer notification failed",
			"order_id", ord.ID().String(), "error", err)
	}
}

func (h DispatchOrderCommandHandler) notifyCustomer(ctx context.Context, ord *order.Order, kind string) {
	if err := h.notifier.NotifyCustomer(ctx, ord.CustomerID(), ports.CustomerEvent{
		Kind:    kind,
		OrderID: ord.ID(),
		Status:  ord.Status(),
	}); err != nil {
		h.logger.WarnContext(ctx, "customer notification failed",
			"order_id", ord.ID().String(), "error", err)
	}
}

// guardSnapshot captures the live (status, holder, attempt) triple before
// in-memory mutation, for the conditional save.
func guardSnapshot(ord *order.Order) ports.OrderGuard {
	return ports.OrderGuard{
		Status:    ord.Status(),
		CourierID: ord.Courier(),
		Attempt:   ord.AttemptCount(),
	}
}
