package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrCourierIsExcluded is returned when assigning a courier that already
	// rejected or timed out on this order.
	ErrCourierIsExcluded = errors.New("courier already declined this order")

	// ErrCourierIsNotHolder is returned when an event names a courier that is
	// not the current holder of the order.
	ErrCourierIsNotHolder = errors.New("order is not assigned to this courier")
)

// Order is the aggregate root for one delivery. It owns the lifecycle state
// machine, the cached distance/pricing quote, the current assignment and the
// append-only set of couriers that declined the order.
//
// Invariants:
//   - AssignedCourier is non-nil iff Status is an assigned-phase status
//   - A courier in the exclusion set can never become the holder again
//   - The exclusion set only grows
//   - AttemptCount increments on every assignment and never decreases
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID

	status  Status
	dropoff kernel.GeoPoint

	// Quote, computed once when the dropoff point is set and reused on
	// every dispatch attempt.
	distanceKm      float64
	etaMinutes      int
	courierEarnings kernel.Money
	customerFee     kernel.Money

	assignedCourierID  *kernel.UUID
	excludedCourierIDs []kernel.UUID
	attemptCount       int

	assignedAt  *time.Time
	acceptedAt  *time.Time
	pickedUpAt  *time.Time
	deliveredAt *time.Time

	// Fields outside dispatch ownership; customer-facing services set them.
	notes         string
	paymentMethod string

	guard guard.ConstructorGuard
}

// Quote is the distance/pricing snapshot cached on the order when the
// dropoff point is set.
type Quote struct {
	DistanceKm      float64
	EtaMinutes      int
	CourierEarnings kernel.Money
	CustomerFee     kernel.Money
}

// NewOrder creates a Pending order for a customer with a fixed dropoff point
// and its precomputed quote. The dropoff point is immutable afterwards.
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	dropoff kernel.GeoPoint,
	quote Quote,
	notes string,
	paymentMethod string,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		notes:         notes,
		paymentMethod: paymentMethod,
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setDropoff(dropoff),
		o.setQuote(quote),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an Order from persistence without re-running
// creation rules, but still enforcing structural invariants, notably the
// holder invariant between status and assigned courier.
func RestoreOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	dropoff kernel.GeoPoint,
	quote Quote,
	status Status,
	assignedCourierID *kernel.UUID,
	excludedCourierIDs []kernel.UUID,
	attemptCount int,
	assignedAt, acceptedAt, pickedUpAt, deliveredAt *time.Time,
	notes string,
	paymentMethod string,
) (*Order, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	if err := status.ValidateCanHaveCourier(assignedCourierID != nil); err != nil {
		return nil, err
	}
	if attemptCount < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("attempt count",
			fmt.Errorf("%d is negative", attemptCount))
	}

	o := &Order{
		status:             status,
		assignedCourierID:  assignedCourierID,
		excludedCourierIDs: excludedCourierIDs,
		attemptCount:       attemptCount,
		assignedAt:         assignedAt,
		acceptedAt:         acceptedAt,
		pickedUpAt:         pickedUpAt,
		deliveredAt:        deliveredAt,
		notes:              notes,
		paymentMethod:      paymentMethod,
		guard:              guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setDropoff(dropoff),
		o.setQuote(Quote{
			DistanceKm:      quote.DistanceKm,
			EtaMinutes:      quote.EtaMinutes,
			CourierEarnings: quote.CourierEarnings,
			CustomerFee:     quote.CustomerFee,
		}),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || o.guard.Validate(ErrOrderIsNotConstructed) != nil {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID             { return o.id }
func (o *Order) CustomerID() kernel.UUID     { return o.customerID }
func (o *Order) Status() Status              { return o.status }
func (o *Order) Dropoff() kernel.GeoPoint    { return o.dropoff }
func (o *Order) DistanceKm() float64         { return o.distanceKm }
func (o *Order) EtaMinutes() int             { return o.etaMinutes }
func (o *Order) Earnings() kernel.Money      { return o.courierEarnings }
func (o *Order) Fee() kernel.Money           { return o.customerFee }
func (o *Order) AttemptCount() int           { return o.attemptCount }
func (o *Order) AssignedAt() *time.Time      { return o.assignedAt }
func (o *Order) AcceptedAt() *time.Time      { return o.acceptedAt }
func (o *Order) PickedUpAt() *time.Time      { return o.pickedUpAt }
func (o *Order) DeliveredAt() *time.Time     { return o.deliveredAt }
func (o *Order) Notes() string               { return o.notes }
func (o *Order) PaymentMethod() string       { return o.paymentMethod }

// Courier returns the id of the courier currently holding the order, or nil.
func (o *Order) Courier() *kernel.UUID {
	return o.assignedCourierID
}

// ExcludedCouriers returns a copy of the exclusion set.
func (o *Order) ExcludedCouriers() []kernel.UUID {
	out := make([]kernel.UUID, len(o.excludedCourierIDs))
	copy(out, o.excludedCourierIDs)
	return out
}

// IsExcluded reports whether the courier already declined this order.
func (o *Order) IsExcluded(courierID kernel.UUID) bool {
	for _, id := range o.excludedCourierIDs {
		if id.IsEqual(courierID) {
			return true
		}
	}
	return false
}

// Confirm marks the order as paid, making it eligible for dispatch.
func (o *Order) Confirm() error {
	newStatus, err := o.status.Confirm()
	if err != nil {
		return err
	}
	o.status = newStatus
	return nil
}

// StartSearch puts the order into Searching so that dispatch can begin.
func (o *Order) StartSearch() error {
	newStatus, err := o.status.StartSearch()
	if err != nil {
		return err
	}
	o.status = newStatus
	return nil
}

// Assign offers the order to a courier. The courier must not be in the
// exclusion set. Records the assignment time and increments the attempt
// counter.
func (o *Order) Assign(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if o.IsExcluded(courierID) {
		return ErrCourierIsExcluded
	}

	newStatus, err := o.status.Assign()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	o.status = newStatus
	o.assignedCourierID = &courierID
	o.assignedAt = &now
	o.attemptCount++
	return nil
}

// Accept records the holding courier's acceptance of the offer.
func (o *Order) Accept(courierID kernel.UUID) error {
	if err := o.ensureHolder(courierID); err != nil {
		return err
	}

	newStatus, err := o.status.Accept()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	o.status = newStatus
	o.acceptedAt = &now
	return nil
}

// Release resolves a rejection or an expired offer: the courier joins the
// exclusion set, the assignment is cleared and the order re-enters Searching.
func (o *Order) Release(courierID kernel.UUID) error {
	if err := o.ensureHolder(courierID); err != nil {
		return err
	}

	newStatus, err := o.status.Release()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.assignedCourierID = nil
	if !o.IsExcluded(courierID) {
		o.excludedCourierIDs = append(o.excludedCourierIDs, courierID)
	}
	return nil
}

// Progress advances an accepted order one step along the delivery chain.
// Only the holding courier may progress the order. PickedUp and Delivered
// record their timestamps; Delivered also clears the holder, and the caller
// releases the courier aggregate.
func (o *Order) Progress(courierID kernel.UUID, target Status, chain ProgressChain) error {
	if err := o.ensureHolder(courierID); err != nil {
		return err
	}

	newStatus, err := chain.Progress(o.status, target)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	o.status = newStatus
	switch newStatus {
	case PickedUp:
		o.pickedUpAt = &now
	case Delivered:
		o.deliveredAt = &now
		o.assignedCourierID = nil
	}
	return nil
}

// MarkRejected terminates the order when no eligible courier exists or the
// retry ceiling was exhausted.
func (o *Order) MarkRejected() error {
	newStatus, err := o.status.MarkRejected()
	if err != nil {
		return err
	}
	o.status = newStatus
	return nil
}

// Cancel withdraws the order from any non-terminal status. If a courier held
// the order the assignment is cleared; the caller releases the courier.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}
	o.status = newStatus
	o.assignedCourierID = nil
	return nil
}

func (o *Order) ensureHolder(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if o.assignedCourierID == nil || !o.assignedCourierID.IsEqual(courierID) {
		return ErrCourierIsNotHolder
	}
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer id", err)
	}
	o.customerID = id
	return nil
}

func (o *Order) setDropoff(dropoff kernel.GeoPoint) error {
	if err := dropoff.Validate(); err != nil {
		return err
	}
	o.dropoff = dropoff
	return nil
}

func (o *Order) setQuote(quote Quote) error {
	if quote.DistanceKm < 0 {
		return errs.NewValueIsInvalidErrorWithCause("distance",
			fmt.Errorf("%f is negative", quote.DistanceKm))
	}
	if quote.EtaMinutes < 0 {
		return errs.NewValueIsInvalidErrorWithCause("eta",
			fmt.Errorf("%d is negative", quote.EtaMinutes))
	}

	o.distanceKm = quote.DistanceKm
	o.etaMinutes = quote.EtaMinutes
	o.courierEarnings = quote.CourierEarnings
	o.customerFee = quote.CustomerFee
	return nil
}
