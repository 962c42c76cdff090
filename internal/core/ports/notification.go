package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderSummary is the payload of a new-offer push to a courier.
type OrderSummary struct {
	OrderID    kernel.UUID
	DistanceKm float64
	EtaMinutes int
	Earnings   kernel.Money
}

// Customer event kinds. The engine distinguishes the two failure terminals
// only in the customer-facing message.
const (
	CustomerEventStatusChanged = "STATUS_CHANGED"
	CustomerEventNoCouriers    = "NO_COURIERS_AVAILABLE"
	CustomerEventRetryCeiling  = "RETRY_CEILING_EXCEEDED"
	CustomerEventCancelled     = "ORDER_CANCELLED"
)

// CustomerEvent describes an order status change pushed to the customer.
type CustomerEvent struct {
	Kind    string
	OrderID kernel.UUID
	Status  order.Status
}

// NotificationSender delivers push messages to couriers and customers.
// All calls are fire-and-forget from the engine's perspective: errors are
// logged by the implementation and never propagate into the state machine.
type NotificationSender interface {
	// NotifyCourierOffer pushes a new-order offer to the courier's device.
	// Couriers without a push token are skipped; they poll instead.
	NotifyCourierOffer(ctx context.Context, c *courier.Courier, summary OrderSummary) error

	// NotifyCourierOfferExpired tells the courier their offer window elapsed.
	NotifyCourierOfferExpired(ctx context.Context, c *courier.Courier, orderID kernel.UUID) error

	// NotifyCustomer pushes an order event to the customer.
	NotifyCustomer(ctx context.Context, customerID kernel.UUID, event CustomerEvent) error
}

// OfferScheduler arms and cancels response timers for courier offers.
// A timer is scoped to one (orderID, attempt) pair; firing invokes the
// engine's timeout entry point. Cancellation is an optimization: an
// uncancelled timer that fires late is neutralized by the state guard.
type OfferScheduler interface {
	// Arm schedules the response timer for an offer just made.
	Arm(orderID, courierID kernel.UUID, attempt int)

	// Cancel stops the timer for an attempt that has resolved.
	Cancel(orderID kernel.UUID, attempt int)
}
