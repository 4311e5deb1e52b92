package ports

import (
	"context"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/session"
)

// Button is one pressable option offered to the customer.
// Data is the opaque callback payload echoed back on press.
type Button struct {
	Label string
	Data  string
}

// Messenger is the outbound contract to the chat transport.
// Rendering and UI concerns stay behind this port; the engine only decides
// what to say and which options to offer.
type Messenger interface {
	// SendText sends a plain message to the identity's conversation.
	SendText(ctx context.Context, to session.Identity, text string) error

	// SendOptions sends a message with rows of pressable buttons.
	SendOptions(ctx context.Context, to session.Identity, text string, rows [][]Button) error

	// SendAlert surfaces a non-blocking alert in response to a button press.
	// callbackRef identifies the press being answered.
	SendAlert(ctx context.Context, to session.Identity, callbackRef string, text string) error

	// NotifyCourier sends the order summary and the customer's location to
	// the courier assigned to the fulfilling pizzeria.
	NotifyCourier(ctx context.Context, courierContact string, summary string, point kernel.GeoPoint) error
}
