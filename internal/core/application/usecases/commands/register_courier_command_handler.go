package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/courier"
)

// RegisterCourierCommandHandler enrolls a new courier.
type RegisterCourierCommandHandler struct {
	uowFactory CourierUoWFactory
	logger     *slog.Logger
}

// NewRegisterCourierCommandHandler creates a handler for courier enrollment.
func NewRegisterCourierCommandHandler(uowFactory CourierUoWFactory, logger *slog.Logger) RegisterCourierCommandHandler {
	return RegisterCourierCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "register_courier_handler"),
	}
}

// Handle enrolls the courier in Offline state.
func (h RegisterCourierCommandHandler) Handle(ctx context.Context, command RegisterCourierCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	c, err := courier.NewCourier(
		command.CourierID(),
		command.Name(),
		command.Phone(),
		command.Vehicle(),
		command.PushToken(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.CourierRepository().Add(ctx, c); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "courier registered",
		"courier_id", c.ID().String(), "name", c.Name())

	return nil
}
