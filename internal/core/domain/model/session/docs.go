// Package session models the per-conversation state of the ordering bot.
// It implements the Session aggregate root plus the closed State and
// EventKind enumerations the conversation engine dispatches on.
//
// Key business rules:
//   - Exactly one Session exists per Identity at any instant
//   - An event is legal only when its kind is in the accepted set of the
//     current state; illegal events leave the session unchanged
//   - ProductSelection, DeliveryRequest, and the cart summary cache are
//     written, overwritten, and cleared by specific transitions only
//   - The confirmed-order marker deduplicates replayed payment confirmations
//
// The aggregate holds data and local invariants; which (state, event)
// pairs map to which behavior is owned by the engine's handler table.
package session
