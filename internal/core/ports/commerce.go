package ports

import (
	"context"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/core/domain/model/session"
)

// Product is the read model of one catalog item.
type Product struct {
	ID          string
	Name        string
	Description string
	// Price is the unit price in minor currency units.
	Price int
	// Available is the stock on hand; zero means sold out.
	Available int
}

// Page describes the position of a product listing within the catalog.
type Page struct {
	Current int
	Total   int
}

// CartItem is one line of a customer's cart.
type CartItem struct {
	ID        string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int
	LineTotal int
}

// Cart is the authoritative cart contents held by the commerce backend.
type Cart struct {
	Items []CartItem
	Total int
}

// Commerce is the outbound contract to the commerce backend that owns the
// catalog, carts, and customer records. The conversation core never caches
// cart contents authoritatively; it re-reads through this port.
//
// Error contract:
//   - AddToCart returns errs.ErrInsufficientStock when stock cannot cover
//     the requested quantity (a domain outcome, not a failure)
//   - CreateCustomer returns errs.ErrValidationFailed for rejected contacts
//   - lookups return *errs.ObjectNotFoundError for unknown ids
//   - transport failures return *errs.BackendUnavailableError and are safe
//     to retry with the same input
type Commerce interface {
	// ListProducts returns one page of live products and the paging position.
	// Pages are 1-based.
	ListProducts(ctx context.Context, page int) ([]Product, Page, error)

	// GetProduct returns one product with its availability.
	GetProduct(ctx context.Context, productID string) (Product, error)

	// AddToCart adds quantity units of a product to the identity's cart and
	// returns the resulting cart.
	AddToCart(ctx context.Context, identity session.Identity, productID string, quantity int) (Cart, error)

	// SetCartItemQuantity replaces the quantity of one cart line.
	// Quantity zero removes the line.
	SetCartItemQuantity(ctx context.Context, identity session.Identity, itemID string, quantity int) error

	// ClearCart removes every line from the identity's cart.
	ClearCart(ctx context.Context, identity session.Identity) error

	// GetCart returns the identity's cart with its authoritative total.
	GetCart(ctx context.Context, identity session.Identity) (Cart, error)

	// CreateCustomerAddress persists the delivery address of a confirmed order.
	CreateCustomerAddress(ctx context.Context, identity session.Identity, address string, point kernel.GeoPoint) error

	// FindCustomerByContact looks a customer up by chat contact.
	// The boolean reports whether the customer exists.
	FindCustomerByContact(ctx context.Context, contact string) (string, bool, error)

	// CreateCustomer registers a new customer record for a chat contact and
	// returns its id.
	CreateCustomer(ctx context.Context, contact string) (string, error)

	// ListFulfillmentLocations returns every pizzeria that can fulfill orders.
	ListFulfillmentLocations(ctx context.Context) ([]pizzeria.FulfillmentLocation, error)
}
