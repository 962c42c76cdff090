package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/pkg/errs"
)

// ReportCourierLocationCommandHandler records a courier position ping.
// Pings are frequent and low-value individually, so failures log at debug
// on the courier side and the handler stays minimal.
type ReportCourierLocationCommandHandler struct {
	uowFactory CourierUoWFactory
	logger     *slog.Logger
}

// NewReportCourierLocationCommandHandler creates a handler for position pings.
func NewReportCourierLocationCommandHandler(uowFactory CourierUoWFactory, logger *slog.Logger) ReportCourierLocationCommandHandler {
	return ReportCourierLocationCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "courier_location_handler"),
	}
}

// Handle stores the reported position on the courier aggregate.
func (h ReportCourierLocationCommandHandler) Handle(ctx context.Context, command ReportCourierLocationCommand) error {
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

	if err = c.ReportPosition(command.Position()); err != nil {
		return err
	}

	// Position columns only. A whole-row write here could carry a stale
	// availability read back over a concurrent assignment.
	if err = courierRepo.UpdatePosition(ctx, c); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
