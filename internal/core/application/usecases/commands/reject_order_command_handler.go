package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

// RejectOrderCommandHandler resolves a courier's explicit rejection of an
// offer. The courier joins the order's exclusion set, becomes Available
// again, and the search restarts immediately with the next attempt.
//
// Reject competes with Accept and TimerFire for the same attempt; the
// guarded save inside releaseAttempt decides the winner. A rejection that
// loses the race resolves as ErrAlreadyResolved.
type RejectOrderCommandHandler struct {
	uowFactory UoWFactory
	scheduler  ports.OfferScheduler
	dispatcher DispatchOrderCommandHandler
	logger     *slog.Logger
}

// NewRejectOrderCommandHandler creates a handler for courier rejections.
// dispatcher runs the follow-up search after a resolved rejection.
func NewRejectOrderCommandHandler(
	uowFactory UoWFactory,
	scheduler ports.OfferScheduler,
	dispatcher DispatchOrderCommandHandler,
	logger *slog.Logger,
) RejectOrderCommandHandler {
	return RejectOrderCommandHandler{
		uowFactory: uowFactory,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		logger:     logger.With("component", "reject_handler"),
	}
}

// Handle processes the rejection and, when it wins the race, immediately
// runs the next dispatch attempt. Outcomes of that follow-up attempt (no
// courier found, retry ceiling reached, or losing a race on the fresh
// attempt) are not the rejecting courier's concern and do not fail the call.
func (h RejectOrderCommandHandler) Handle(ctx context.Context, command RejectOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()

	ord, _, attempt, err := releaseAttempt(ctx, uow, command.OrderID(), command.CourierID(), nil)
	if err != nil {
		return err
	}

	h.scheduler.Cancel(ord.ID(), attempt)

	h.logger.InfoContext(ctx, "offer rejected",
		"order_id", ord.ID().String(),
		"courier_id", command.CourierID().String(),
		"attempt", attempt)

	h.redispatch(ctx, command)

	return nil
}

func (h RejectOrderCommandHandler) redispatch(ctx context.Context, command RejectOrderCommand) {
	dispatchCmd, err := NewDispatchOrderCommand(command.OrderID())
	if err != nil {
		h.logger.ErrorContext(ctx, "re-dispatch command failed",
			"order_id", command.OrderID().String(), "error", err)
		return
	}

	err = h.dispatcher.Handle(ctx, dispatchCmd)
	if err == nil || IsBenignDispatchOutcome(err) {
		return
	}

	h.logger.ErrorContext(ctx, "re-dispatch failed",
		"order_id", command.OrderID().String(), "error", err)
}
