package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/pkg/errs"
)

// ConfirmOrderCommandHandler moves a Pending order to Confirmed, which makes
// it visible to the dispatch sweep. Confirmation cannot race the assignment
// machinery, so the save is unguarded.
type ConfirmOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	logger     *slog.Logger
}

// NewConfirmOrderCommandHandler creates a handler for order confirmations.
func NewConfirmOrderCommandHandler(uowFactory OrderUoWFactory, logger *slog.Logger) ConfirmOrderCommandHandler {
	return ConfirmOrderCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "confirm_handler"),
	}
}

// Handle confirms the order.
func (h ConfirmOrderCommandHandler) Handle(ctx context.Context, command ConfirmOrderCommand) error {
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

	if err = ord.Confirm(); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, ord); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order confirmed", "order_id", ord.ID().String())

	return nil
}
