package ports

import (
	"context"

	"pizzeria/internal/core/domain/model/session"
)

// Slot names one per-identity key/value compartment in the session store.
type Slot string

// Session slots. Each transition touches specific slots only; the full set
// keyed by one identity makes up that identity's session.
const (
	// SlotState holds the persisted session state name.
	SlotState Slot = "state"
	// SlotProduct holds the open product selection.
	SlotProduct Slot = "product"
	// SlotCartSummary holds the rendered cart snapshot cache.
	SlotCartSummary Slot = "cart_summary"
	// SlotDelivery holds the pending delivery request.
	SlotDelivery Slot = "delivery"
	// SlotConfirmed holds the dedup marker of the last confirmed payment.
	SlotConfirmed Slot = "confirmed"
)

// SessionStore is the durable per-identity key/value contract.
// Only single-key operations exist; the store guarantees read-after-write
// within one identity, which is all the serialized engine needs.
// Unavailability aborts only the current event; other identities proceed.
type SessionStore interface {
	// Get reads one slot. The boolean reports presence.
	Get(ctx context.Context, identity session.Identity, slot Slot) ([]byte, bool, error)

	// Set writes one slot, replacing any previous value.
	Set(ctx context.Context, identity session.Identity, slot Slot, value []byte) error

	// Delete removes one slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, identity session.Identity, slot Slot) error
}
