package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrReportCourierLocationCommandIsNotConstructed = errors.New(
	"ReportCourierLocationCommand must be created via NewReportCourierLocationCommand constructor",
)

// ReportCourierLocationCommand records a courier position ping. Positions
// feed the nearest-courier search; a courier without a recent position is
// not matchable.
type ReportCourierLocationCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	position  kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewReportCourierLocationCommand creates a command recording a position.
func NewReportCourierLocationCommand(courierID kernel.UUID, position kernel.GeoPoint) (ReportCourierLocationCommand, error) {
	command := ReportCourierLocationCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCourierID(courierID),
		command.setPosition(position),
	); err != nil {
		return ReportCourierLocationCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportCourierLocationCommandIsNotConstructed)
}

// CourierID returns the reporting courier.
func (c ReportCourierLocationCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Position returns the reported location.
func (c ReportCourierLocationCommand) Position() kernel.GeoPoint {
	return c.position
}

func (c *ReportCourierLocationCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *ReportCourierLocationCommand) setPosition(position kernel.GeoPoint) error {
	if err := position.Validate(); err != nil {
		return err
	}

	c.position = position
	return nil
}
