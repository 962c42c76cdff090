package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/pkg/errs"
)

// SetCourierAvailabilityCommandHandler toggles a courier's duty state. The
// domain rejects Busy as a target and any toggle while the courier holds an
// order; those surface to the caller unchanged.
type SetCourierAvailabilityCommandHandler struct {
	uowFactory CourierUoWFactory
	logger     *slog.Logger
}

// NewSetCourierAvailabilityCommandHandler creates a handler for duty toggles.
func NewSetCourierAvailabilityCommandHandler(uowFactory CourierUoWFactory, logger *slog.Logger) SetCourierAvailabilityCommandHandler {
	return SetCourierAvailabilityCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "courier_availability_handler"),
	}
}

// Handle applies the requested duty state.
func (h SetCourierAvailabilityCommandHandler) Handle(ctx context.Context, command SetCourierAvailabilityCommand) error {
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

	courierRepo := uow.CourierRepository()

	c, err := courierRepo.Get(ctx, command.CourierID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ErrNoCourierFound
	}
	if err != nil {
		return err
	}

	was := c.Availability()

	if err = c.SetAvailability(command.Target()); err != nil {
		return err
	}

	// The only writer a toggle can race is a dispatch marking the courier
	// Busy between our read and this write; the condition catches it.
	saved, err := courierRepo.UpdateGuarded(ctx, c, was)
	if err != nil {
		return err
	}
	if !saved {
		return courier.ErrCourierIsBusy
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "courier availability changed",
		"courier_id", c.ID().String(),
		"availability", c.Availability().String())

	return nil
}
