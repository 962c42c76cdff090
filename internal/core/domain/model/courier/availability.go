package courier

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Availability represents a courier's duty state.
//
// Transitions:
//
//	Offline <──> Available ──> Busy ──> Available
//
// Available and Offline are toggled by the courier; Busy is entered and left
// only by the dispatch engine as a side effect of assignment and release.
type Availability int

const (
	// AvailabilityUnknown represents an invalid or undefined availability.
	AvailabilityUnknown Availability = iota

	// Available means the courier is on duty and may be offered orders.
	Available

	// Busy means the courier holds exactly one order in an assigned-phase
	// status and may not be offered another.
	Busy

	// Offline means the courier is off duty.
	Offline
)

func getAvailabilityStrings() map[Availability]string {
	return map[Availability]string{
		AvailabilityUnknown: "Unknown",
		Available:           "Available",
		Busy:                "Busy",
		Offline:             "Offline",
	}
}

// AvailabilityFromString parses an availability name as produced by String.
func AvailabilityFromString(s string) (Availability, error) {
	for availability, name := range getAvailabilityStrings() {
		if name == s && availability != AvailabilityUnknown {
			return availability, nil
		}
	}
	return AvailabilityUnknown, errs.NewValueIsInvalidErrorWithCause("availability is invalid",
		fmt.Errorf("%q is not a valid availability", s))
}

// Validate checks that the Availability holds one of the defined values.
func (a Availability) Validate() error {
	if a != Available && a != Busy && a != Offline {
		return errs.NewValueIsInvalidErrorWithCause("availability is invalid",
			fmt.Errorf("%d is not a valid availability", a))
	}
	return nil
}

// String returns the human-readable name. Implements fmt.Stringer.
func (a Availability) String() string {
	if str, ok := getAvailabilityStrings()[a]; ok {
		return str
	}
	return "Unknown"
}

// MarkBusy transitions Available to Busy when the engine assigns an order.
func (a Availability) MarkBusy() (Availability, error) {
	if a != Available {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"availability is invalid",
			fmt.Errorf("%s is not a valid availability to mark busy", a.String()),
		)
	}
	return Busy, nil
}

// Release transitions Busy back to Available when the held order resolves.
func (a Availability) Release() (Availability, error) {
	if a != Busy {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"availability is invalid",
			fmt.Errorf("%s is not a valid availability to release", a.String()),
		)
	}
	return Available, nil
}
