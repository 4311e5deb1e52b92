package engine

import (
	"errors"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/pkg/errs"
)

// Precheck is the payment provider's pre-authorization callback payload.
type Precheck struct {
	// ID identifies the precheck for answering.
	ID string
	// Reference is the payload echoed from the issued payment request.
	Reference string
	// Amount is the total in minor currency units the provider will charge.
	Amount int
}

// Payment is the provider's capture confirmation payload.
type Payment struct {
	// Reference is the payload echoed from the issued payment request.
	Reference string
	// Amount is the captured total in minor currency units.
	Amount int
}

// Event is one inbound occurrence addressed to a single conversation
// identity. Exactly one payload field is set, selected by Kind.
type Event struct {
	Identity session.Identity
	Kind     session.EventKind

	// Text carries the message text for KindText.
	Text string

	// CallbackID identifies the button press for answering; CallbackData is
	// the opaque payload of the pressed button. Both for KindCallback.
	CallbackID   string
	CallbackData string

	// Location carries the shared coordinates for KindLocationShare.
	Location *kernel.GeoPoint

	// Precheck is set for KindPaymentPrecheck.
	Precheck *Precheck

	// Payment is set for KindPaymentConfirmed.
	Payment *Payment
}

// Validate checks the event addresses an identity, has a known kind, and
// carries the payload its kind requires.
func (e Event) Validate() error {
	if err := errors.Join(e.Identity.Validate(), e.Kind.Validate()); err != nil {
		return err
	}

	switch e.Kind {
	case session.KindLocationShare:
		if e.Location == nil {
			return errs.NewValueIsRequiredError("location")
		}
		return e.Location.Validate()
	case session.KindPaymentPrecheck:
		if e.Precheck == nil {
			return errs.NewValueIsRequiredError("precheck")
		}
	case session.KindPaymentConfirmed:
		if e.Payment == nil {
			return errs.NewValueIsRequiredError("payment")
		}
	case session.KindText, session.KindCallback, session.KindUnknown:
	}

	return nil
}
