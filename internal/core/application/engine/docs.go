// Package engine implements the conversation engine of the pizza-ordering
// bot. The engine is a finite-state machine keyed by conversation identity:
// every inbound event is serialized per identity, dispatched on the pair of
// current state and event kind, and the resulting session is persisted
// before the event is acknowledged.
//
// The engine owns conversation semantics only. Catalog, carts, and customer
// records live behind the Commerce port; geocoding, payments, messaging,
// and the deferred feedback prompt live behind their own ports.
package engine
