package courier

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrNameIsRequired is returned when creating a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier or RestoreCourier constructor")
	// ErrBusyIsEngineOwned is returned when courier-facing code tries to set
	// Busy directly; only assignment and release may do that.
	ErrBusyIsEngineOwned = errors.New("busy availability is set only by the dispatch engine")
	// ErrCourierIsBusy is returned when toggling duty state while the courier
	// holds an order.
	ErrCourierIsBusy = errors.New("courier is busy with an order")
)

// Courier represents a delivery courier known to the dispatch engine.
//
// Key responsibilities:
//   - Tracking availability (Available, Busy, Offline) and the active flag
//   - Holding the last reported position used by nearest-courier search
//   - Holding the push token used for best-effort offer notifications
//
// Business rules:
//   - A courier is matchable only when Available, active, and positioned
//   - Busy is entered and left only through MarkBusy/Release, driven by the
//     engine's guarded order transitions
type Courier struct {
	id           kernel.UUID
	name         string
	phone        string
	vehicle      string
	availability Availability
	lastPosition *kernel.GeoPoint
	positionAt   *time.Time
	pushToken    string
	isActive     bool
	guard        guard.ConstructorGuard
}

// NewCourier registers a new courier. Couriers start Offline with no
// reported position; pushToken may be empty, in which case the courier must
// poll for offers.
func NewCourier(id kernel.UUID, name, phone, vehicle, pushToken string) (*Courier, error) {
	c := &Courier{
		phone:        phone,
		vehicle:      vehicle,
		pushToken:    pushToken,
		availability: Offline,
		isActive:     true,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RestoreCourier reconstructs a Courier aggregate from persistent storage.
func RestoreCourier(
	id kernel.UUID,
	name, phone, vehicle string,
	availability Availability,
	lastPosition *kernel.GeoPoint,
	positionAt *time.Time,
	pushToken string,
	isActive bool,
) (*Courier, error) {
	if err := availability.Validate(); err != nil {
		return nil, err
	}
	if lastPosition != nil {
		if err := lastPosition.Validate(); err != nil {
			return nil, err
		}
	}

	c := &Courier{
		phone:        phone,
		vehicle:      vehicle,
		availability: availability,
		lastPosition: lastPosition,
		positionAt:   positionAt,
		pushToken:    pushToken,
		isActive:     isActive,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate ensures the Courier instance was properly constructed.
func (c *Courier) Validate() error {
	if c == nil || c.guard.Validate(ErrCourierIsNotConstructed) != nil {
		return ErrCourierIsNotConstructed
	}
	return nil
}

// IsEqual compares two couriers by identity.
func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

func (c *Courier) ID() kernel.UUID            { return c.id }
func (c *Courier) Name() string               { return c.name }
func (c *Courier) Phone() string              { return c.phone }
func (c *Courier) Vehicle() string            { return c.vehicle }
func (c *Courier) Availability() Availability { return c.availability }
func (c *Courier) PushToken() string          { return c.pushToken }
func (c *Courier) IsActive() bool             { return c.isActive }
func (c *Courier) PositionAt() *time.Time     { return c.positionAt }

// LastPosition returns the courier's last reported position, or nil if the
// courier has never reported one.
func (c *Courier) LastPosition() *kernel.GeoPoint {
	return c.lastPosition
}

// IsMatchable reports whether the courier may be offered an order:
// on duty, active, and with a known position.
func (c *Courier) IsMatchable() bool {
	return c.availability == Available && c.isActive && c.lastPosition != nil
}

// ReportPosition records the courier's current position and its timestamp.
func (c *Courier) ReportPosition(position kernel.GeoPoint) error {
	if err := position.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	c.lastPosition = &position
	c.positionAt = &now
	return nil
}

// SetPushToken replaces the courier's device token; empty clears it.
func (c *Courier) SetPushToken(token string) {
	c.pushToken = token
}

// MarkBusy is called by the engine when assigning an order to this courier.
func (c *Courier) MarkBusy() error {
	next, err := c.availability.MarkBusy()
	if err != nil {
		return err
	}
	c.availability = next
	return nil
}

// Release is called by the engine when the courier's held offer or order
// resolves (rejection, timeout, delivery, cancellation).
func (c *Courier) Release() error {
	next, err := c.availability.Release()
	if err != nil {
		return err
	}
	c.availability = next
	return nil
}

// SetAvailability toggles the courier between Available and Offline.
// Busy is engine-owned and rejected here, as is leaving Busy.
func (c *Courier) SetAvailability(target Availability) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if target == Busy {
		return ErrBusyIsEngineOwned
	}
	if c.availability == Busy {
		return ErrCourierIsBusy
	}
	c.availability = target
	return nil
}

// Deactivate soft-disables the courier independent of availability.
func (c *Courier) Deactivate() {
	c.isActive = false
}

// Activate re-enables a soft-disabled courier.
func (c *Courier) Activate() {
	c.isActive = true
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}
