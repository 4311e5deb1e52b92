package commerce_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pizzeria/internal/adapters/out/commerce"
	"pizzeria/internal/pkg/errs"

	"github.com/stretchr/testify/require"
)

// newBackend serves a token endpoint plus the given API routes.
func newBackend(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600}`)
	})
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			handler(w, r)
		})
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, server *httptest.Server) *commerce.Client {
	t.Helper()

	tokens, err := commerce.NewTokenCache(server.URL+"/oauth/access_token", "client-1", "secret", time.Minute)
	require.NoError(t, err)

	client, err := commerce.NewClient(server.URL, tokens, 8)
	require.NoError(t, err)
	return client
}

func TestClient_ListProducts(t *testing.T) {
	server := newBackend(t, map[string]http.HandlerFunc{
		"GET /v2/products": func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "2", r.URL.Query().Get("page"))
			require.Equal(t, "8", r.URL.Query().Get("limit"))
			fmt.Fprint(w, `{
				"data": [
					{"id":"p1","name":"Margherita","description":"Classic","price":[{"amount":50000}],
					 "meta":{"stock":{"level":10}}}
				],
				"meta": {"page": {"current": 2, "total": 3}}
			}`)
		},
	})

	client := newClient(t, server)

	products, page, err := client.ListProducts(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Margherita", products[0].Name)
	require.Equal(t, 50000, products[0].Price)
	require.Equal(t, 10, products[0].Available)
	require.Equal(t, 2, page.Current)
	require.Equal(t, 3, page.Total)
}

func TestClient_GetProduct_NotFound(t *testing.T) {
	server := newBackend(t, map[string]http.HandlerFunc{
		"GET /v2/products/{id}": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	})

	client := newClient(t, server)

	_, err := client.GetProduct(t.Context(), "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestClient_AddToCart_InsufficientStock(t *testing.T) {
	server := newBackend(t, map[string]http.HandlerFunc{
		"POST /v2/carts/{identity}/items": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"errors":[{"detail":"insufficient stock for product p1"}]}`)
		},
	})

	client := newClient(t, server)

	_, err := client.AddToCart(t.Context(), "chat-1", "p1", 99)
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrInsufficientStock)
}

func TestClient_AddToCart_ReturnsCart(t *testing.T) {
	server := newBackend(t, map[string]http.HandlerFunc{
		"POST /v2/carts/{identity}/items": func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"data":[]}`)
		},
		"GET /v2/carts/{identity}/items": func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{
				"data": [
					{"id":"line-1","product_id":"p1","name":"Margherita","quantity":2,
					 "unit_price":{"amount":50000},"value":{"amount":100000}}
				],
				"meta": {"display_price": {"with_tax": {"amount": 100000}}}
			}`)
		},
	})

	client := newClient(t, server)

	cart, err := client.AddToCart(t.Context(), "chat-1", "p1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Items[0].Quantity)
	require.Equal(t, 100000, cart.Total)
}

func TestClient_SetCartItemQuantity_ZeroDeletes(t *testing.T) {
	var deleted, updated bool
	server := newBackend(t, map[string]http.HandlerFunc{
		"DELETE /v2/carts/{identity}/items/{item}": func(w http.ResponseWriter, _ *http.Request) {
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		},
		"PUT /v2/carts/{identity}/items/{item}": func(w http.ResponseWriter, _ *http.Request) {
			updated = true
			fmt.Fprint(w, `{"data":[]}`)
		},
	})

	client := newClient(t, server)

	require.NoError(t, client.SetCartItemQuantity(t.Context(), "chat-1", "line-1", 0))
	require.True(t, deleted)
	require.False(t, updated)

	require.NoError(t, client.SetCartItemQuantity(t.Context(), "chat-1", "line-1", 3))
	require.True(t, updated)
}

func TestClient_CustomerLookupAndCreate(t *testing.T) {
	var created bool
	server := newBackend(t, map[string]http.HandlerFunc{
		"GET /v2/customers": func(w http.ResponseWriter, r *http.Request) {
			require.Contains(t, r.URL.Query().Get("filter"), "chat-1@chat.pizzeria.local")
			fmt.Fprint(w, `{"data":[]}`)
		},
		"POST /v2/customers": func(w http.ResponseWriter, _ *http.Request) {
			created = true
			fmt.Fprint(w, `{"data":{"id":"cust-1"}}`)
		},
	})

	client := newClient(t, server)

	_, found, err := client.FindCustomerByContact(t.Context(), "chat-1")
	require.NoError(t, err)
	require.False(t, found)

	id, err := client.CreateCustomer(t.Context(), "chat-1")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "cust-1", id)
}

func TestClient_ListFulfillmentLocations(t *testing.T) {
	server := newBackend(t, map[string]http.HandlerFunc{
		"GET /v2/flows/pizzeria/entries": func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{
				"data": [
					{"address":"Tverskaya 1","latitude":55.7522,"longitude":37.6156,
					 "courier_contact":"courier-1"}
				]
			}`)
		},
	})

	client := newClient(t, server)

	locations, err := client.ListFulfillmentLocations(t.Context())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	require.Equal(t, "Tverskaya 1", locations[0].Address())
	require.Equal(t, "courier-1", locations[0].CourierContact())
	require.InDelta(t, 55.7522, locations[0].Point().Lat(), 1e-9)
}

func TestClient_ServerErrorMapsToBackendUnavailable(t *testing.T) {
	server := newBackend(t, map[string]http.HandlerFunc{
		"GET /v2/products": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})

	client := newClient(t, server)

	_, _, err := client.ListProducts(t.Context(), 1)
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrBackendUnavailable)
}
