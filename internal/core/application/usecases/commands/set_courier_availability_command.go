package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrSetCourierAvailabilityCommandIsNotConstructed = errors.New(
	"SetCourierAvailabilityCommand must be created via NewSetCourierAvailabilityCommand constructor",
)

// SetCourierAvailabilityCommand toggles a courier's duty state between
// Available and Offline. Busy is engine-owned and cannot be requested.
type SetCourierAvailabilityCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	target    courier.Availability

	guard guard.ConstructorGuard
}

// NewSetCourierAvailabilityCommand creates a command toggling duty state.
func NewSetCourierAvailabilityCommand(courierID kernel.UUID, target courier.Availability) (SetCourierAvailabilityCommand, error) {
	command := SetCourierAvailabilityCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCourierID(courierID),
		command.setTarget(target),
	); err != nil {
		return SetCourierAvailabilityCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c SetCourierAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrSetCourierAvailabilityCommandIsNotConstructed)
}

// CourierID returns the courier changing duty state.
func (c SetCourierAvailabilityCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Target returns the requested duty state.
func (c SetCourierAvailabilityCommand) Target() courier.Availability {
	return c.target
}

func (c *SetCourierAvailabilityCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *SetCourierAvailabilityCommand) setTarget(target courier.Availability) error {
	if err := target.Validate(); err != nil {
		return err
	}

	c.target = target
	return nil
}
