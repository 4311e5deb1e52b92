// Package pizzeria models the fulfillment side of the ordering domain:
// pizzerias as delivery origins and the fee tiers their distance to a
// customer produces.
//
// The package includes:
//   - FulfillmentLocation: a validated, immutable pickup/delivery origin
//     with its courier's chat contact
//   - Tier: the closed enumeration of delivery-fee brackets
//
// Tier thresholds and fee amounts are deliberately not here; they are
// configuration owned by the zone resolver in the services package.
package pizzeria
