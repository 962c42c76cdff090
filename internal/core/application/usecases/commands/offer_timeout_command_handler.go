package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// OfferTimeoutCommandHandler resolves a response-window expiry. If the
// attempt the timer was armed for is still the live one, the non-responding
// courier is excluded and released, and the search restarts.
//
// A fired timer is just another contender in the attempt's race: when the
// courier accepted or rejected first (or a crash-recovery sweep already
// resolved the attempt), the state guard fails and the fire is a no-op.
type OfferTimeoutCommandHandler struct {
	uowFactory UoWFactory
	notifier   ports.NotificationSender
	dispatcher DispatchOrderCommandHandler
	logger     *slog.Logger
}

// NewOfferTimeoutCommandHandler creates a handler for offer expiries.
func NewOfferTimeoutCommandHandler(
	uowFactory UoWFactory,
	notifier ports.NotificationSender,
	dispatcher DispatchOrderCommandHandler,
	logger *slog.Logger,
) OfferTimeoutCommandHandler {
	return OfferTimeoutCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		dispatcher: dispatcher,
		logger:     logger.With("component", "timeout_handler"),
	}
}

// Handle processes the expiry. ErrAlreadyResolved means the attempt was
// resolved before the fire took effect, which is the expected outcome for
// most timers and never an error condition for the caller.
func (h OfferTimeoutCommandHandler) Handle(ctx context.Context, command OfferTimeoutCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	attempt := command.Attempt()

	ord, holder, _, err := releaseAttempt(ctx, uow, command.OrderID(), command.CourierID(), &attempt)
	if err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "offer expired",
		"order_id", ord.ID().String(),
		"courier_id", command.CourierID().String(),
		"attempt", attempt)

	if err = h.notifier.NotifyCourierOfferExpired(ctx, holder, ord.ID()); err != nil {
		h.logger.WarnContext(ctx, "offer expiry notification failed",
			"order_id", ord.ID().String(), "error", err)
	}

	h.redispatch(ctx, command.OrderID())

	return nil
}

func (h OfferTimeoutCommandHandler) redispatch(ctx context.Context, orderID kernel.UUID) {
	dispatchCmd, err := NewDispatchOrderCommand(orderID)
	if err != nil {
		h.logger.ErrorContext(ctx, "re-dispatch command failed",
			"order_id", orderID.String(), "error", err)
		return
	}

	err = h.dispatcher.Handle(ctx, dispatchCmd)
	if err == nil || IsBenignDispatchOutcome(err) {
		return
	}

	h.logger.ErrorContext(ctx, "re-dispatch failed",
		"order_id", orderID.String(), "error", err)
}
