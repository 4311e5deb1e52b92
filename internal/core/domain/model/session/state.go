package session

import (
	"fmt"

	"pizzeria/internal/pkg/errs"
)

// State represents the conversation position of one chat identity.
// It is a closed enumeration: every session is in exactly one of these
// states at any instant, and an event only dispatches when its kind is in
// the accepted set of the current state.
//
// State flow:
//
//	Start ──> BrowsingMenu <──> ViewingItem
//	              │  ▲               │
//	              ▼  │               ▼
//	         ReviewingCart <──> EditingCart
//	              │
//	              ▼
//	       AwaitingAddress ──> ChoosingFulfillment ──┬──> Start (pickup/cancel)
//	                                                 ▼
//	                              AwaitingPaymentPrecheck
//	                                                 │
//	                                                 ▼
//	                          AwaitingPaymentConfirmation
//	                                                 │
//	                                                 ▼
//	                                  AwaitingFeedback ──> Start
type State int

const (
	// StateUnknown represents an invalid or undefined state.
	// This value (0) helps catch uninitialized State values.
	StateUnknown State = iota

	// StateStart is the initial state of every new identity.
	StateStart

	// StateBrowsingMenu shows the paginated product menu.
	StateBrowsingMenu

	// StateViewingItem shows one product with buy/back/cart options.
	StateViewingItem

	// StateReviewingCart shows the cart summary with edit/clear/checkout.
	StateReviewingCart

	// StateEditingCart allows per-line quantity adjustment.
	StateEditingCart

	// StateAwaitingAddress waits for a location share or free-text address.
	StateAwaitingAddress

	// StateChoosingFulfillment presents pickup/delivery options for the
	// resolved delivery zone.
	StateChoosingFulfillment

	// StateAwaitingPaymentPrecheck waits for the provider's pre-authorization
	// callback on the issued payment request.
	StateAwaitingPaymentPrecheck

	// StateAwaitingPaymentConfirmation waits for the capture confirmation.
	StateAwaitingPaymentConfirmation

	// StateAwaitingFeedback waits for the deferred delivery-feedback answer.
	StateAwaitingFeedback
)

func getStateStrings() map[State]string {
	return map[State]string{
		StateUnknown:                     "Unknown",
		StateStart:                       "Start",
		StateBrowsingMenu:                "BrowsingMenu",
		StateViewingItem:                 "ViewingItem",
		StateReviewingCart:               "ReviewingCart",
		StateEditingCart:                 "EditingCart",
		StateAwaitingAddress:             "AwaitingAddress",
		StateChoosingFulfillment:         "ChoosingFulfillment",
		StateAwaitingPaymentPrecheck:     "AwaitingPaymentPrecheck",
		StateAwaitingPaymentConfirmation: "AwaitingPaymentConfirmation",
		StateAwaitingFeedback:            "AwaitingFeedback",
	}
}

// getAcceptedKinds returns the event kinds each state accepts.
// Events of any other kind are illegal transitions and leave the state
// unchanged. The begin command is handled before this table applies.
func getAcceptedKinds() map[State][]EventKind {
	return map[State][]EventKind{
		StateStart:                       {KindText, KindCallback},
		StateBrowsingMenu:                {KindCallback},
		StateViewingItem:                 {KindCallback},
		StateReviewingCart:               {KindCallback},
		StateEditingCart:                 {KindCallback},
		StateAwaitingAddress:             {KindText, KindLocationShare},
		StateChoosingFulfillment:         {KindCallback},
		StateAwaitingPaymentPrecheck:     {KindPaymentPrecheck},
		StateAwaitingPaymentConfirmation: {KindPaymentConfirmed},
		StateAwaitingFeedback:            {KindCallback},
	}
}

// AllStates returns every valid state. Used to validate the engine's
// handler table exhaustively at construction time.
func AllStates() []State {
	return []State{
		StateStart,
		StateBrowsingMenu,
		StateViewingItem,
		StateReviewingCart,
		StateEditingCart,
		StateAwaitingAddress,
		StateChoosingFulfillment,
		StateAwaitingPaymentPrecheck,
		StateAwaitingPaymentConfirmation,
		StateAwaitingFeedback,
	}
}

// Validate checks the State value is a member of the closed enumeration.
// StateUnknown and out-of-range values are invalid.
func (s State) Validate() error {
	if s == StateUnknown {
		return errs.NewValueIsInvalidErrorWithCause("state",
			fmt.Errorf("%d is not a valid state", s))
	}
	if _, ok := getStateStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("state",
			fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

// String returns the persisted name of the state.
// Implements fmt.Stringer; safe on any value.
func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// ParseState restores a State from its persisted name.
// Returns an error for unknown names so corrupt store values surface
// instead of silently resetting a conversation.
func ParseState(name string) (State, error) {
	for state, str := range getStateStrings() {
		if str == name && state != StateUnknown {
			return state, nil
		}
	}
	return StateUnknown, errs.NewValueIsInvalidErrorWithCause("state",
		fmt.Errorf("%q is not a valid state name", name))
}

// Accepts reports whether an event of the given kind is legal in this state.
func (s State) Accepts(kind EventKind) bool {
	for _, k := range getAcceptedKinds()[s] {
		if k == kind {
			return true
		}
	}
	return false
}
