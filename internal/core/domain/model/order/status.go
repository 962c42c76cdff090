package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a state machine with defined transitions so orders always
// follow the delivery workflow:
//
//	Pending ──> Confirmed ──> Searching ──┬──> Assigned ──> Accepted ──> PickingUp ──> PickedUp ──> InTransit ──> AtDoor ──> Delivered
//	                              ^       │        │
//	                              │       └──> Rejected (no eligible courier / retry ceiling)
//	                              └────────────────┘
//	                        (courier rejected or offer timed out)
//
// Any non-terminal status may transition to Cancelled.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status before payment is confirmed.
	Pending

	// Confirmed means payment completed; the order is eligible for dispatch.
	Confirmed

	// Searching means the engine is looking for a courier.
	Searching

	// Assigned means a courier was offered the order and the response
	// window is open.
	Assigned

	// Accepted means the assigned courier accepted the offer.
	Accepted

	// PickingUp means the courier is heading to the pickup point.
	PickingUp

	// PickedUp means the courier confirmed pickup at the restaurant.
	PickedUp

	// InTransit means the courier departed towards the dropoff point.
	InTransit

	// AtDoor means the courier arrived at the dropoff point.
	AtDoor

	// Delivered is the successful terminal status.
	Delivered

	// Rejected is the terminal status for orders no courier would take.
	Rejected

	// Cancelled is the terminal status for withdrawn orders.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Pending:   "Pending",
		Confirmed: "Confirmed",
		Searching: "Searching",
		Assigned:  "Assigned",
		Accepted:  "Accepted",
		PickingUp: "PickingUp",
		PickedUp:  "PickedUp",
		InTransit: "InTransit",
		AtDoor:    "AtDoor",
		Delivered: "Delivered",
		Rejected:  "Rejected",
		Cancelled: "Cancelled",
	}
}

// StatusFromString parses a status name as produced by String.
func StatusFromString(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid",
		fmt.Errorf("%q is not a valid status", s))
}

// Validate checks that the Status holds one of the defined lifecycle values.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid status", s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status.
// Implements fmt.Stringer and is safe on any value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Rejected || s == Cancelled
}

// IsAssignedPhase reports whether the status requires a courier to hold the
// order. The holder invariant: an order has a courier iff its status is one
// of Assigned, Accepted, PickingUp, PickedUp, InTransit, AtDoor.
func (s Status) IsAssignedPhase() bool {
	switch s {
	case Assigned, Accepted, PickingUp, PickedUp, InTransit, AtDoor:
		return true
	default:
		return false
	}
}

// ValidateCanHaveCourier validates the consistency between order status and
// courier assignment per the holder invariant.
func (s Status) ValidateCanHaveCourier(hasCourier bool) error {
	if hasCourier && !s.IsAssignedPhase() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a courier", s.String()),
		)
	}

	if !hasCourier && s.IsAssignedPhase() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no courier", s.String()),
		)
	}

	return nil
}

// Confirm transitions Pending to Confirmed when payment completes.
func (s Status) Confirm() (Status, error) {
	if s != Pending {
		return 0, transitionError(s, "confirm")
	}
	return Confirmed, nil
}

// StartSearch transitions Confirmed to Searching when dispatch begins.
// Searching stays Searching so that a retry sweep can re-enter dispatch.
func (s Status) StartSearch() (Status, error) {
	if s != Confirmed && s != Searching {
		return 0, transitionError(s, "start searching")
	}
	return Searching, nil
}

// Assign transitions Searching to Assigned when a courier is offered the order.
func (s Status) Assign() (Status, error) {
	if s != Searching {
		return 0, transitionError(s, "assign")
	}
	return Assigned, nil
}

// Accept transitions Assigned to Accepted when the courier takes the offer.
func (s Status) Accept() (Status, error) {
	if s != Assigned {
		return 0, transitionError(s, "accept")
	}
	return Accepted, nil
}

// Release transitions Assigned back to Searching when the courier rejects
// the offer or the response window elapses.
func (s Status) Release() (Status, error) {
	if s != Assigned {
		return 0, transitionError(s, "release")
	}
	return Searching, nil
}

// MarkRejected transitions Searching to the Rejected terminal status when no
// eligible courier exists or the retry ceiling is exhausted.
func (s Status) MarkRejected() (Status, error) {
	if s != Searching {
		return 0, transitionError(s, "reject")
	}
	return Rejected, nil
}

// Cancel transitions any non-terminal status to Cancelled.
func (s Status) Cancel() (Status, error) {
	if s.IsTerminal() {
		return 0, transitionError(s, "cancel")
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return Cancelled, nil
}

// progressOrder is the strict delivery progression after acceptance.
var progressOrder = []Status{Accepted, PickingUp, PickedUp, InTransit, AtDoor, Delivered}

// ProgressChain is the ordered set of delivery statuses a deployment drives
// an accepted order through. Deployments that collapse intermediate steps
// (for example couriers that never report PickingUp) disable them here
// instead of redefining the state machine.
type ProgressChain struct {
	disabled map[Status]bool
}

// NewProgressChain builds the full Accepted..Delivered progression with the
// given intermediate statuses disabled. Accepted and Delivered cannot be
// disabled.
func NewProgressChain(skip ...Status) (ProgressChain, error) {
	disabled := make(map[Status]bool, len(skip))
	for _, s := range skip {
		if s == Accepted || s == Delivered {
			return ProgressChain{}, errs.NewValueIsInvalidErrorWithCause("progress chain",
				fmt.Errorf("%s cannot be skipped", s.String()))
		}
		if !contains(progressOrder, s) {
			return ProgressChain{}, errs.NewValueIsInvalidErrorWithCause("progress chain",
				fmt.Errorf("%s is not a delivery progress status", s.String()))
		}
		disabled[s] = true
	}
	return ProgressChain{disabled: disabled}, nil
}

// Next returns the status that follows current in this deployment's chain.
func (c ProgressChain) Next(current Status) (Status, error) {
	idx := -1
	for i, s := range progressOrder {
		if s == current {
			idx = i
			break
		}
	}
	if idx < 0 || current == Delivered {
		return 0, transitionError(current, "progress")
	}

	for _, s := range progressOrder[idx+1:] {
		if !c.disabled[s] {
			return s, nil
		}
	}
	return 0, transitionError(current, "progress")
}

// Progress validates that target is the next enabled status after current.
func (c ProgressChain) Progress(current, target Status) (Status, error) {
	next, err := c.Next(current)
	if err != nil {
		return 0, err
	}
	if next != target {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s does not follow %s in the delivery progression", target.String(), current.String()),
		)
	}
	return target, nil
}

func contains(statuses []Status, s Status) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func transitionError(s Status, action string) error {
	return errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%s is not a valid status to %s", s.String(), action),
	)
}
