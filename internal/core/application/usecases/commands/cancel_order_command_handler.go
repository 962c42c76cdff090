package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// CancelOrderCommandHandler withdraws an order. Cancellation is allowed
// from any non-terminal status; if a courier currently holds the order the
// assignment is dropped and the courier returns to Available. Any pending
// response timer is cancelled, and even a fire that slips through finds
// the order out of Assigned and resolves as a no-op.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	notifier   ports.NotificationSender
	scheduler  ports.OfferScheduler
	logger     *slog.Logger
}

// NewCancelOrderCommandHandler creates a handler for order cancellations.
func NewCancelOrderCommandHandler(
	uowFactory UoWFactory,
	notifier ports.NotificationSender,
	scheduler ports.OfferScheduler,
	logger *slog.Logger,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		scheduler:  scheduler,
		logger:     logger.With("component", "cancel_handler"),
	}
}

// Handle processes the cancellation. Cancelling an already-terminal order
// fails with the domain's transition error.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, command CancelOrderCommand) error {
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

	expected := guardSnapshot(ord)
	holder := ord.Courier()
	attempt := ord.AttemptCount()

	if err = ord.Cancel(); err != nil {
		return err
	}

	saved, err := orderRepo.UpdateGuarded(ctx, ord, expected)
	if err != nil {
		return err
	}
	if !saved {
		return ErrAlreadyResolved
	}

	if holder != nil {
		if _, err = releaseCourier(ctx, uow.CourierRepository(), *holder); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if holder != nil {
		h.scheduler.Cancel(ord.ID(), attempt)
	}

	h.logger.InfoContext(ctx, "order cancelled",
		"order_id", ord.ID().String())

	if err = h.notifier.NotifyCustomer(ctx, ord.CustomerID(), ports.CustomerEvent{
		Kind:    ports.CustomerEventCancelled,
		OrderID: ord.ID(),
		Status:  ord.Status(),
	}); err != nil {
		h.logger.WarnContext(ctx, "customer notification failed",
			"order_id", ord.ID().String(), "error", err)
	}

	return nil
}
