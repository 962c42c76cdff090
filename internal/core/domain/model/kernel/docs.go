// Package kernel provides core domain primitives shared across the dispatch
// engine's domain model.
//
// The package includes:
//   - UUID: A value object for unique identifiers with validation and comparison capabilities
//   - GeoPoint: A validated geographic coordinate pair with great-circle distance
//   - Money: A fixed-point monetary amount with deterministic two-decimal rounding
//
// These primitives enforce domain invariants and validation rules, ensuring that
// domain objects are always in a valid state. They are immutable and safe for
// concurrent use.
package kernel
