package session

import (
	"fmt"

	"pizzeria/internal/pkg/errs"
)

// EventKind classifies inbound conversation events by their transport shape.
// The pair (State, EventKind) selects the engine handler for an event.
type EventKind int

const (
	// KindUnknown represents an invalid or undefined event kind.
	KindUnknown EventKind = iota

	// KindText is a free-text chat message (including the begin command).
	KindText

	// KindCallback is a button press carrying opaque callback data.
	KindCallback

	// KindLocationShare is a shared geographic location.
	KindLocationShare

	// KindPaymentPrecheck is the payment provider's pre-authorization callback.
	KindPaymentPrecheck

	// KindPaymentConfirmed is the payment provider's capture confirmation.
	KindPaymentConfirmed
)

func getEventKindStrings() map[EventKind]string {
	return map[EventKind]string{
		KindUnknown:          "Unknown",
		KindText:             "Text",
		KindCallback:         "Callback",
		KindLocationShare:    "LocationShare",
		KindPaymentPrecheck:  "PaymentPrecheck",
		KindPaymentConfirmed: "PaymentConfirmed",
	}
}

// Validate checks the kind is one of the defined inbound kinds.
func (k EventKind) Validate() error {
	if k == KindUnknown {
		return errs.NewValueIsInvalidErrorWithCause("event kind",
			fmt.Errorf("%d is not a valid event kind", k))
	}
	if _, ok := getEventKindStrings()[k]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("event kind",
			fmt.Errorf("%d is not a valid event kind", k))
	}
	return nil
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if s, ok := getEventKindStrings()[k]; ok {
		return s
	}
	return "Unknown"
}
