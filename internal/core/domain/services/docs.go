// Package services provides domain services that implement business logic
// spanning multiple domain types.
//
// The package includes:
//   - ZoneResolver: a pure service mapping a customer point and the
//     candidate fulfillment locations to the nearest location, its
//     distance, and the delivery-fee tier for that distance
//   - TierTable: the configurable thresholds and fees the resolver
//     classifies distances with
//
// Resolution is deterministic and free of I/O, so the checkout flow can
// call it inline and unit tests can pin its boundary behavior exactly.
package services
