package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ProgressOrderCommandHandler advances an accepted order along the delivery
// chain: PickingUp, PickedUp, InTransit, AtDoor, Delivered. Deployments may
// configure a shorter chain; the injected ProgressChain is authoritative.
//
// Delivery progress does not race the assignment machinery - the order left
// the Assigned phase races when it was Accepted - but the save stays guarded
// so a concurrent Cancel cannot be overwritten by a late progress report.
type ProgressOrderCommandHandler struct {
	uowFactory UoWFactory
	chain      order.ProgressChain
	notifier   ports.NotificationSender
	logger     *slog.Logger
}

// NewProgressOrderCommandHandler creates a handler for delivery progress.
func NewProgressOrderCommandHandler(
	uowFactory UoWFactory,
	chain order.ProgressChain,
	notifier ports.NotificationSender,
	logger *slog.Logger,
) ProgressOrderCommandHandler {
	return ProgressOrderCommandHandler{
		uowFactory: uowFactory,
		chain:      chain,
		notifier:   notifier,
		logger:     logger.With("component", "progress_handler"),
	}
}

// Handle moves the order to the reported status. Reaching Delivered also
// releases the courier back to Available.
func (h ProgressOrderCommandHandler) Handle(ctx context.Context, command ProgressOrderCommand) error {
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

	if err = ord.Progress(command.CourierID(), command.Target(), h.chain); err != nil {
		return err
	}

	saved, err := orderRepo.UpdateGuarded(ctx, ord, expected)
	if err != nil {
		return err
	}
	if !saved {
		return ErrAlreadyResolved
	}

	if ord.Status() == order.Delivered {
		if _, err = releaseCourier(ctx, uow.CourierRepository(), command.CourierID()); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order progressed",
		"order_id", ord.ID().String(),
		"courier_id", command.CourierID().String(),
		"status", ord.Status().String())

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
