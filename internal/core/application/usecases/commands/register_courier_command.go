package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrRegisterCourierCommandIsNotConstructed = errors.New(
	"RegisterCourierCommand must be created via NewRegisterCourierCommand constructor",
)

// RegisterCourierCommand enrolls a new courier. Couriers start Offline; they
// become matchable once they go Available and report a position.
type RegisterCourierCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	name      string
	phone     string
	vehicle   string
	pushToken string

	guard guard.ConstructorGuard
}

// NewRegisterCourierCommand creates a command enrolling a courier. pushToken
// may be empty; such couriers poll for offers instead of receiving pushes.
func NewRegisterCourierCommand(courierID kernel.UUID, name, phone, vehicle, pushToken string) (RegisterCourierCommand, error) {
	command := RegisterCourierCommand{
		phone:     phone,
		vehicle:   vehicle,
		pushToken: pushToken,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCourierID(courierID),
		command.setName(name),
	); err != nil {
		return RegisterCourierCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c RegisterCourierCommand) Validate() error {
	return c.guard.Validate(ErrRegisterCourierCommandIsNotConstructed)
}

// CourierID returns the identifier of the courier being enrolled.
func (c RegisterCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Name returns the courier's display name.
func (c RegisterCourierCommand) Name() string {
	return c.name
}

// Phone returns the courier's contact phone.
func (c RegisterCourierCommand) Phone() string {
	return c.phone
}

// Vehicle returns the courier's vehicle description.
func (c RegisterCourierCommand) Vehicle() string {
	return c.vehicle
}

// PushToken returns the courier's push registration token, empty if none.
func (c RegisterCourierCommand) PushToken() string {
	return c.pushToken
}

func (c *RegisterCourierCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *RegisterCourierCommand) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}

	c.name = name
	return nil
}
