// Package courier provides the Courier aggregate root for the dispatch engine.
//
// The package includes:
//   - Courier: The aggregate root holding identity, availability, last
//     reported position, push token and the active flag
//   - Availability: A small state machine over Available, Busy and Offline
//
// Key business rules:
//   - Only the dispatch engine moves a courier between Available and Busy;
//     courier-facing services may only toggle Available and Offline
//   - A courier without a reported position is never eligible for matching
//   - A courier without a push token can still be matched but cannot be
//     notified and must poll instead
package courier
