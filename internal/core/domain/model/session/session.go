package session

import (
	"errors"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/pkg/errs"
)

// Domain errors for session operations.
var (
	// ErrIdentityIsRequired is returned when creating a session without an identity.
	ErrIdentityIsRequired = errs.NewValueIsRequiredError("identity")
	// ErrSessionIsNotConstructed is returned when using an improperly initialized Session.
	ErrSessionIsNotConstructed = errors.New("Session must be created via NewSession or RestoreSession")
	// ErrNoDeliveryRequest is returned when a checkout step needs the delivery
	// request before the address step produced one.
	ErrNoDeliveryRequest = errs.NewValueIsRequiredError("delivery request")
)

// Identity is the opaque stable identifier of one conversation.
// It keys all session state and serializes event processing.
type Identity string

// Validate rejects the empty identity.
func (i Identity) Validate() error {
	if i == "" {
		return ErrIdentityIsRequired
	}
	return nil
}

// String returns the raw identity value.
func (i Identity) String() string {
	return string(i)
}

// ProductSelection is the transient identity-scoped record of the product
// currently open in the item view. Written on item-open, overwritten by the
// next open, read on add-to-cart.
type ProductSelection struct {
	ProductID   string
	Description string
	// UnitPrice is the product price in minor currency units.
	UnitPrice int
}

// Validate checks the selection carries a product and a sane price.
func (p ProductSelection) Validate() error {
	if p.ProductID == "" {
		return errs.NewValueIsRequiredError("product id")
	}
	if p.UnitPrice < 0 {
		return errs.NewValueIsInvalidError("unit price")
	}
	return nil
}

// DeliveryRequest is the identity-scoped record created when the customer
// submits an address or location. It lives from submission through order
// confirmation, then is cleared.
type DeliveryRequest struct {
	// Address is the raw customer input; empty for a bare location share.
	Address string
	// Point is the resolved customer coordinates.
	Point kernel.GeoPoint
	// Location is the chosen (nearest) fulfillment location.
	Location pizzeria.FulfillmentLocation
	// DistanceKm is the great-circle distance to Location.
	DistanceKm float64
	// Tier is the delivery-fee bracket for that distance.
	Tier pizzeria.Tier
	// Fee is the delivery fee in minor currency units.
	Fee int
	// OrderID is assigned when the payment request is issued; the payment
	// confirmation is deduplicated against it.
	OrderID kernel.UUID
}

// Validate checks coordinates, location, and tier; OrderID may still be
// unset because payment is only issued after the fulfillment choice.
func (d DeliveryRequest) Validate() error {
	if err := errors.Join(d.Point.Validate(), d.Location.Validate(), d.Tier.Validate()); err != nil {
		return err
	}
	if d.DistanceKm < 0 {
		return errs.NewValueIsInvalidError("distance")
	}
	if d.Fee < 0 {
		return errs.NewValueIsInvalidError("fee")
	}
	return nil
}

// Session is the aggregate holding everything the engine knows about one
// conversation identity: its state plus the transient slot caches.
// Exactly one Session exists per Identity at any instant; the engine
// replaces it atomically with the event that caused the change.
type Session struct {
	identity Identity
	state    State

	selection      *ProductSelection
	delivery       *DeliveryRequest
	cartSummary    string
	confirmedOrder *kernel.UUID

	isConstructed bool
}

// NewSession creates the implicit default session for a first-seen identity.
// It starts in StateStart with every slot empty.
func NewSession(identity Identity) (*Session, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		identity:      identity,
		state:         StateStart,
		isConstructed: true,
	}, nil
}

// RestoreSession reconstructs a session from persistence.
// All slot values are optional; state and identity must be valid.
func RestoreSession(
	identity Identity,
	state State,
	selection *ProductSelection,
	delivery *DeliveryRequest,
	cartSummary string,
	confirmedOrder *kernel.UUID,
) (*Session, error) {
	if err := errors.Join(identity.Validate(), state.Validate()); err != nil {
		return nil, err
	}
	if selection != nil {
		if err := selection.Validate(); err != nil {
			return nil, err
		}
	}
	if delivery != nil {
		if err := delivery.Validate(); err != nil {
			return nil, err
		}
	}
	if confirmedOrder != nil {
		if err := confirmedOrder.Validate(); err != nil {
			return nil, err
		}
	}

	return &Session{
		identity:       identity,
		state:          state,
		selection:      selection,
		delivery:       delivery,
		cartSummary:    cartSummary,
		confirmedOrder: confirmedOrder,
		isConstructed:  true,
	}, nil
}

// Validate ensures the session came from a constructor.
func (s *Session) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrSessionIsNotConstructed
	}
	return nil
}

// Identity returns the conversation identity the session belongs to.
func (s *Session) Identity() Identity {
	return s.identity
}

// State returns the current conversation state.
func (s *Session) State() State {
	return s.state
}

// Selection returns the open product selection, or nil.
func (s *Session) Selection() *ProductSelection {
	return s.selection
}

// Delivery returns the pending delivery request, or nil.
func (s *Session) Delivery() *DeliveryRequest {
	return s.delivery
}

// CartSummary returns the cached rendered cart snapshot.
// It is a cache only; the commerce backend stays authoritative.
func (s *Session) CartSummary() string {
	return s.cartSummary
}

// ConfirmedOrder returns the dedup marker of the last confirmed payment,
// or nil when no confirmation has been processed.
func (s *Session) ConfirmedOrder() *kernel.UUID {
	return s.confirmedOrder
}

// MoveTo transitions the session to the given state.
// Legality of the triggering event against the previous state is the
// engine's concern; this only rejects values outside the enumeration.
func (s *Session) MoveTo(next State) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.state = next
	return nil
}

// SelectProduct records the product opened in the item view, replacing any
// previous selection.
func (s *Session) SelectProduct(selection ProductSelection) error {
	if err := selection.Validate(); err != nil {
		return err
	}

	s.selection = &selection
	return nil
}

// ClearSelection drops the open product selection.
func (s *Session) ClearSelection() {
	s.selection = nil
}

// SetDelivery records the delivery request produced by the address step.
func (s *Session) SetDelivery(request DeliveryRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}

	s.delivery = &request
	return nil
}

// AttachPaymentOrder stamps the pending delivery request with the order id
// the payment request was issued under. Fails when no delivery request
// exists: payment can only follow the address step.
func (s *Session) AttachPaymentOrder(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	if s.delivery == nil {
		return ErrNoDeliveryRequest
	}

	s.delivery.OrderID = orderID
	return nil
}

// ClearDelivery drops the delivery request after confirmation or cancel.
func (s *Session) ClearDelivery() {
	s.delivery = nil
}

// SetCartSummary caches the rendered cart snapshot.
func (s *Session) SetCartSummary(summary string) {
	s.cartSummary = summary
}

// ClearCartSummary drops the cached cart snapshot.
func (s *Session) ClearCartSummary() {
	s.cartSummary = ""
}

// MarkConfirmed records that the payment for the given order id has been
// fully processed, gating replayed confirmation events.
func (s *Session) MarkConfirmed(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	s.confirmedOrder = &orderID
	return nil
}

// AlreadyConfirmed reports whether the given order id was already processed.
func (s *Session) AlreadyConfirmed(orderID kernel.UUID) bool {
	return s.confirmedOrder != nil && s.confirmedOrder.IsEqual(orderID)
}
