package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrOfferTimeoutCommandIsNotConstructed = errors.New(
	"OfferTimeoutCommand must be created via NewOfferTimeoutCommand constructor",
)

// OfferTimeoutCommand is the response-window expiry event for one exact
// assignment attempt. The attempt number scopes the event: a timer armed
// for attempt N must never resolve attempt N+1.
type OfferTimeoutCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID
	attempt   int

	guard guard.ConstructorGuard
}

// NewOfferTimeoutCommand creates a timeout event for the given attempt.
func NewOfferTimeoutCommand(orderID, courierID kernel.UUID, attempt int) (OfferTimeoutCommand, error) {
	command := OfferTimeoutCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setCourierID(courierID),
		command.setAttempt(attempt),
	); err != nil {
		return OfferTimeoutCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c OfferTimeoutCommand) Validate() error {
	return c.guard.Validate(ErrOfferTimeoutCommandIsNotConstructed)
}

// OrderID returns the order whose offer expired.
func (c OfferTimeoutCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CourierID returns the courier that let the offer lapse.
func (c OfferTimeoutCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Attempt returns the assignment attempt the timer was armed for.
func (c OfferTimeoutCommand) Attempt() int {
	return c.attempt
}

func (c *OfferTimeoutCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *OfferTimeoutCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *OfferTimeoutCommand) setAttempt(attempt int) error {
	if attempt < 1 {
		return errs.NewValueIsInvalidError("attempt")
	}

	c.attempt = attempt
	return nil
}
