package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
)

const defaultPageSize = 8

// Client talks to the commerce backend's JSON API. It implements the
// Commerce port: catalog, per-identity carts, customers, and the pizzeria
// location flow.
type Client struct {
	baseURL    string
	tokens     *TokenCache
	httpClient *http.Client
	pageSize   int
}

// NewClient creates a commerce client. A non-positive pageSize falls back
// to the default.
func NewClient(baseURL string, tokens *TokenCache, pageSize int) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("base url")
	}
	if tokens == nil {
		return nil, errs.NewValueIsRequiredError("tokens")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pageSize:   pageSize,
	}, nil
}

type productDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       []struct {
		Amount int `json:"amount"`
	} `json:"price"`
	Meta struct {
		Stock struct {
			Level int `json:"level"`
		} `json:"stock"`
	} `json:"meta"`
}

func (d productDTO) toPort() ports.Product {
	product := ports.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Available:   d.Meta.Stock.Level,
	}
	if len(d.Price) > 0 {
		product.Price = d.Price[0].Amount
	}
	return product
}

type cartItemDTO struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice struct {
		Amount int `json:"amount"`
	} `json:"unit_price"`
	Value struct {
		Amount int `json:"amount"`
	} `json:"value"`
}

// ListProducts returns one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, page int) ([]ports.Product, ports.Page, error) {
	if page < 1 {
		page = 1
	}

	var body struct {
		Data []productDTO `json:"data"`
		Meta struct {
			Page struct {
				Current int `json:"current"`
				Total   int `json:"total"`
			} `json:"page"`
		} `json:"meta"`
	}

	query := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(c.pageSize)},
	}
	if err := c.do(ctx, http.MethodGet, "/v2/products", query, nil, &body); err != nil {
		return nil, ports.Page{}, err
	}

	products := make([]ports.Product, 0, len(body.Data))
	for _, dto := range body.Data {
		products = append(products, dto.toPort())
	}

	paging := ports.Page{Current: body.Meta.Page.Current, Total: body.Meta.Page.Total}
	if paging.Current == 0 {
		paging.Current = page
	}
	if paging.Total == 0 {
		paging.Total = 1
	}

	return products, paging, nil
}

// GetProduct returns one product with its availability.
func (c *Client) GetProduct(ctx context.Context, productID string) (ports.Product, error) {
	if productID == "" {
		return ports.Product{}, errs.NewValueIsRequiredError("product id")
	}

	var body struct {
		Data productDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/products/"+url.PathEscape(productID), nil, nil, &body); err != nil {
		return ports.Product{}, err
	}

	return body.Data.toPort(), nil
}

// AddToCart adds quantity units of a product to the identity's cart.
func (c *Client) AddToCart(
	ctx context.Context, identity session.Identity, productID string, quantity int,
) (ports.Cart, error) {
	if err := identity.Validate(); err != nil {
		return ports.Cart{}, err
	}
	if quantity < 1 {
		return ports.Cart{}, errs.NewValueIsInvalidError("quantity")
	}

	payload := map[string]any{
		"data": map[string]any{
			"type":     "cart_item",
			"id":       productID,
			"quantity": quantity,
		},
	}

	path := "/v2/carts/" + url.PathEscape(identity.String()) + "/items"
	if err := c.do(ctx, http.MethodPost, path, nil, payload, nil); err != nil {
		return ports.Cart{}, err
	}

	return c.GetCart(ctx, identity)
}

// SetCartItemQuantity replaces the quantity of one cart line.
// Quantity zero removes the line.
func (c *Client) SetCartItemQuantity(
	ctx context.Context, identity session.Identity, itemID string, quantity int,
) error {
	if err := identity.Validate(); err != nil {
		return err
	}
	if itemID == "" {
		return errs.NewValueIsRequiredError("item id")
	}
	if quantity < 0 {
		return errs.NewValueIsInvalidError("quantity")
	}

	path := "/v2/carts/" + url.PathEscape(identity.String()) + "/items/" + url.PathEscape(itemID)

	if quantity == 0 {
		return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	}

	payload := map[string]any{
		"data": map[string]any{"quantity": quantity},
	}
	return c.do(ctx, http.MethodPut, path, nil, payload, nil)
}

// ClearCart removes every line from the identity's cart.
func (c *Client) ClearCart(ctx context.Context, identity session.Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	return c.do(ctx, http.MethodDelete, "/v2/carts/"+url.PathEscape(identity.String()), nil, nil, nil)
}

// GetCart returns the identity's cart with its authoritative total.
func (c *Client) GetCart(ctx context.Context, identity session.Identity) (ports.Cart, error) {
	if err := identity.Validate(); err != nil {
		return ports.Cart{}, err
	}

	var body struct {
		Data []cartItemDTO `json:"data"`
		Meta struct {
			DisplayPrice struct {
				WithTax struct {
					Amount int `json:"amount"`
				} `json:"with_tax"`
			} `json:"display_price"`
		} `json:"meta"`
	}

	path := "/v2/carts/" + url.PathEscape(identity.String()) + "/items"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &body); err != nil {
		return ports.Cart{}, err
	}

	cart := ports.Cart{
		Items: make([]ports.CartItem, 0, len(body.Data)),
		Total: body.Meta.DisplayPrice.WithTax.Amount,
	}
	for _, dto := range body.Data {
		cart.Items = append(cart.Items, ports.CartItem{
			ID:        dto.ID,
			ProductID: dto.ProductID,
			Name:      dto.Name,
			Quantity:  dto.Quantity,
			UnitPrice: dto.UnitPrice.Amount,
			LineTotal: dto.Value.Amount,
		})
	}

	return cart, nil
}

// CreateCustomerAddress persists the delivery address of a confirmed order
// on the customer record.
func (c *Client) CreateCustomerAddress(
	ctx context.Context, identity session.Identity, address string, point kernel.GeoPoint,
) error {
	if err := identity.Validate(); err != nil {
		return err
	}
	if err := point.Validate(); err != nil {
		return err
	}

	customerID, found, err := c.FindCustomerByContact(ctx, identity.String())
	if err != nil {
		return err
	}
	if !found {
		customerID, err = c.CreateCustomer(ctx, identity.String())
		if err != nil {
			return err
		}
	}

	payload := map[string]any{
		"data": map[string]any{
			"type":      "address",
			"line_1":    address,
			"latitude":  point.Lat(),
			"longitude": point.Lon(),
		},
	}

	path := "/v2/customers/" + url.PathEscape(customerID) + "/addresses"
	return c.do(ctx, http.MethodPost, path, nil, payload, nil)
}

// FindCustomerByContact looks a customer up by chat contact.
func (c *Client) FindCustomerByContact(ctx context.Context, contact string) (string, bool, error) {
	if contact == "" {
		return "", false, errs.NewValueIsRequiredError("contact")
	}

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	query := url.Values{"filter": {fmt.Sprintf("eq(email,%s)", contactEmail(contact))}}
	if err := c.do(ctx, http.MethodGet, "/v2/customers", query, nil, &body); err != nil {
		return "", false, err
	}
	if len(body.Data) == 0 {
		return "", false, nil
	}

	return body.Data[0].ID, true, nil
}

// CreateCustomer registers a new customer record for a chat contact.
func (c *Client) CreateCustomer(ctx context.Context, contact string) (string, error) {
	if contact == "" {
		return "", errs.NewValueIsRequiredError("contact")
	}

	payload := map[string]any{
		"data": map[string]any{
			"type":  "customer",
			"name":  contact,
			"email": contactEmail(contact),
		},
	}

	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/customers", nil, payload, &body); err != nil {
		return "", err
	}

	return body.Data.ID, nil
}

// ListFulfillmentLocations returns every pizzeria from the backend's
// pizzeria flow.
func (c *Client) ListFulfillmentLocations(ctx context.Context) ([]pizzeria.FulfillmentLocation, error) {
	var body struct {
		Data []struct {
			Address        string  `json:"address"`
			Latitude       float64 `json:"latitude"`
			Longitude      float64 `json:"longitude"`
			CourierContact string  `json:"courier_contact"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, "/v2/flows/pizzeria/entries", nil, nil, &body); err != nil {
		return nil, err
	}

	locations := make([]pizzeria.FulfillmentLocation, 0, len(body.Data))
	for _, dto := range body.Data {
		point, err := kernel.NewGeoPoint(dto.Latitude, dto.Longitude)
		if err != nil {
			return nil, fmt.Errorf("pizzeria entry %q: %w", dto.Address, err)
		}

		location, err := pizzeria.NewFulfillmentLocation(dto.Address, point, dto.CourierContact)
		if err != nil {
			return nil, fmt.Errorf("pizzeria entry %q: %w", dto.Address, err)
		}

		locations = append(locations, location)
	}

	return locations, nil
}

// contactEmail derives the synthetic customer email the backend keys
// customer records by.
func contactEmail(contact string) string {
	return contact + "@chat.pizzeria.local"
}

// do performs one authenticated API call and decodes the response into out.
func (c *Client) do(
	ctx context.Context, method, path string, query url.Values, payload any, out any,
) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewBackendUnavailableError("commerce", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, path); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewBackendUnavailableError("commerce", err)
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusNotFound:
		return errs.NewObjectNotFoundError("resource", path)

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		detail := errorDetail(resp)
		if strings.Contains(strings.ToLower(detail), "stock") {
			return fmt.Errorf("%s: %w", detail, errs.ErrInsufficientStock)
		}
		return fmt.Errorf("%s: %w", detail, errs.ErrValidationFailed)

	default:
		return errs.NewBackendUnavailableError("commerce",
			fmt.Errorf("unexpected status %d on %s", resp.StatusCode, path))
	}
}

func errorDetail(resp *http.Response) string {
	var body struct {
		Errors []struct {
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Errors) == 0 {
		return "request rejected"
	}
	return body.Errors[0].Detail
}
