package ports

import (
	"context"
	"errors"

	"pizzeria/internal/core/domain/model/kernel"
)

// ErrAddressNotFound is returned when the geocoding provider recognizes the
// request but finds no place matching the address text. It is a recoverable
// outcome: the customer is asked to try again.
var ErrAddressNotFound = errors.New("address not found")

// Geocoder is the outbound contract to the geocoding provider.
// Transport failures surface as *errs.BackendUnavailableError.
type Geocoder interface {
	// Resolve maps free-text address input to geographic coordinates.
	Resolve(ctx context.Context, address string) (kernel.GeoPoint, error)
}
