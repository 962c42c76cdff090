package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrProgressOrderCommandIsNotConstructed = errors.New(
	"ProgressOrderCommand must be created via NewProgressOrderCommand constructor",
)

// ProgressOrderCommand advances an accepted order to the given delivery
// status. Only the courier holding the order may progress it.
type ProgressOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID
	target    order.Status

	guard guard.ConstructorGuard
}

// NewProgressOrderCommand creates a command moving an order to target.
func NewProgressOrderCommand(orderID, courierID kernel.UUID, target order.Status) (ProgressOrderCommand, error) {
	command := ProgressOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setCourierID(courierID),
		command.setTarget(target),
	); err != nil {
		return ProgressOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c ProgressOrderCommand) Validate() error {
	return c.guard.Validate(ErrProgressOrderCommandIsNotConstructed)
}

// OrderID returns the order being progressed.
func (c ProgressOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CourierID returns the courier reporting the progress.
func (c ProgressOrderCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Target returns the delivery status being reported.
func (c ProgressOrderCommand) Target() order.Status {
	return c.target
}

func (c *ProgressOrderCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *ProgressOrderCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *ProgressOrderCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}

	c.target = target
	return nil
}
