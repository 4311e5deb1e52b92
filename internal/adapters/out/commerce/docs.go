// Package commerce is the HTTP adapter for the commerce backend that owns
// the product catalog, per-identity carts, customer records, and the
// pizzeria location flow. Authentication uses a cached client-credentials
// bearer token that refreshes itself shortly before expiry.
package commerce
