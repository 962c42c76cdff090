package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// AcceptOrderCommandHandler resolves a courier's acceptance of an offer.
//
// Accept competes with Reject and TimerFire for the same attempt. The
// guarded save makes the race deterministic: only the first event to pass
// the (status, holder, attempt) guard takes effect; every later event for
// that attempt fails the guard and resolves as ErrAlreadyResolved. Replaying
// an acceptance that already succeeded is likewise a no-op, because the
// order is no longer in Assigned.
type AcceptOrderCommandHandler struct {
	uowFactory UoWFactory
	notifier   ports.NotificationSender
	scheduler  ports.OfferScheduler
	logger     *slog.Logger
}

// NewAcceptOrderCommandHandler creates a handler for courier acceptances.
func NewAcceptOrderCommandHandler(
	uowFactory UoWFactory,
	notifier ports.NotificationSender,
	scheduler ports.OfferScheduler,
	logger *slog.Logger,
) AcceptOrderCommandHandler {
	return AcceptOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		scheduler:  scheduler,
		logger:     logger.With("component", "accept_handler"),
	}
}

// Handle processes the acceptance. On success the response timer for the
// attempt is cancelled and the customer is notified. ErrAlreadyResolved
// means the attempt was already resolved by another event; the caller
// reports "too late" to the courier, not an error.
func (h AcceptOrderCommandHandler) Handle(ctx context.Context, command AcceptOrderCommand) error {
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

	ord, err := orderRepo.Get(ctx, command.OrderID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ErrNoOrderFound
	}
	if err != nil {
		return err
	}

	if ord.Status() != order.Assigned {
		return ErrAlreadyResolved
	}

	expected := guardSnapshot(ord)

	if err = ord.Accept(command.CourierID()); err != nil {
		if errors.Is(err, order.ErrCourierIsNotHolder) {
			return ErrAlreadyResolved
		}
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

	// The guard, not this cancellation, is what makes a late fire harmless.
	h.scheduler.Cancel(ord.ID(), ord.AttemptCount())

	h.logger.InfoContext(ctx, "order accepted",
		"order_id", ord.ID().String(),
		"courier_id", command.CourierID().String(),
		"attempt", ord.AttemptCount())

	if err = h.notifier.NotifyCustomer(ctx, ord.CustomerID(), ports.CustomerEvent{
		Kind:    ports.CustomerEventStatusChanged,
		OrderID: ord.ID(),
		Status:  ord.Status(),
	}); err != nil {
		h.logger.WarnContext(ctx, "customer notification failed",
			"order_id", ord.ID().String(), "error", err)
	}

	return nil
}
