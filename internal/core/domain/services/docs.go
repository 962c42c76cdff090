// Package services provides domain services that implement dispatch logic
// spanning multiple aggregates.
//
// The package includes:
//   - CourierSelector: nearest-courier search over matchable couriers with
//     routed-distance estimation and great-circle fallback
//   - PricingCalculator: pure distance-to-money functions for courier
//     earnings and the customer delivery fee
package services
