// Package order provides the Order aggregate root and its delivery lifecycle
// state machine.
//
// The package includes:
//   - Order: The aggregate root holding dropoff, pricing, assignment and
//     exclusion state for one delivery
//   - Status: A state machine enforcing the valid lifecycle transitions
//
// Key business rules:
//   - An order holds a courier if and only if its status is one of the
//     assigned-phase statuses (Assigned through AtDoor)
//   - A courier that rejected or timed out on an order is excluded from it
//     permanently; the exclusion set only grows
//   - Every transition is guarded by the expected prior state, and where a
//     courier is involved, by the expected holder and attempt number
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
