package pizzeria

import (
	"errors"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/guard"
)

// Domain errors for fulfillment location construction.
var (
	// ErrAddressIsRequired is returned when creating a location without an address.
	ErrAddressIsRequired = errs.NewValueIsRequiredError("address")
	// ErrCourierContactIsRequired is returned when creating a location without a courier contact.
	ErrCourierContactIsRequired = errs.NewValueIsRequiredError("courier contact")
	// ErrFulfillmentLocationIsNotConstructed is returned when using an improperly
	// initialized FulfillmentLocation.
	ErrFulfillmentLocationIsNotConstructed = errors.New(
		"FulfillmentLocation must be created via NewFulfillmentLocation constructor")
)

// FulfillmentLocation is a pickup/delivery origin: a pizzeria with its
// address, coordinates, and the chat identity of its assigned courier.
// It is read-only to the conversation core; the list is loaded from the
// commerce backend and shared as an immutable snapshot.
type FulfillmentLocation struct { //nolint:recvcheck //using for validation
	address        string
	point          kernel.GeoPoint
	courierContact string

	guard guard.ConstructorGuard
}

// NewFulfillmentLocation creates a validated FulfillmentLocation.
// Address and courier contact must be non-empty; the point must be a
// properly constructed GeoPoint.
func NewFulfillmentLocation(address string, point kernel.GeoPoint, courierContact string) (FulfillmentLocation, error) {
	location := FulfillmentLocation{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		location.setAddress(address),
		location.setPoint(point),
		location.setCourierContact(courierContact),
	); err != nil {
		return FulfillmentLocation{}, err
	}

	return location, nil
}

// Validate ensures the location was created through the constructor.
func (l FulfillmentLocation) Validate() error {
	return l.guard.Validate(ErrFulfillmentLocationIsNotConstructed)
}

// Address returns the human-readable street address.
func (l FulfillmentLocation) Address() string {
	return l.address
}

// Point returns the geographic coordinates of the location.
func (l FulfillmentLocation) Point() kernel.GeoPoint {
	return l.point
}

// CourierContact returns the chat identity used to notify the courier
// assigned to this location.
func (l FulfillmentLocation) CourierContact() string {
	return l.courierContact
}

func (l *FulfillmentLocation) setAddress(address string) error {
	if address == "" {
		return ErrAddressIsRequired
	}

	l.address = address
	return nil
}

func (l *FulfillmentLocation) setPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}

	l.point = point
	return nil
}

func (l *FulfillmentLocation) setCourierContact(contact string) error {
	if contact == "" {
		return ErrCourierContactIsRequired
	}

	l.courierContact = contact
	return nil
}
