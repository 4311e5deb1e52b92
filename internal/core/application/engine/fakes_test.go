package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pizzeria/internal/core/application/engine"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/domain/services"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"

	"github.com/stretchr/testify/require"
)

const kmPerDegreeLat = 6371.0 * 3.141592653589793 / 180.0

const (
	baseLat = 55.7522
	baseLon = 37.6156
)

// pointAtKm returns a point the given distance due north of the test pizzeria.
func pointAtKm(t *testing.T, km float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(baseLat+km/kmPerDegreeLat, baseLon)
	require.NoError(t, err)
	return point
}

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) key(identity session.Identity, slot ports.Slot) string {
	return identity.String() + "|" + string(slot)
}

func (s *memStore) Get(_ context.Context, identity session.Identity, slot ports.Slot) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, false, errors.New("store is down")
	}
	value, ok := s.data[s.key(identity, slot)]
	return value, ok, nil
}

func (s *memStore) Set(_ context.Context, identity session.Identity, slot ports.Slot, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store is down")
	}
	s.data[s.key(identity, slot)] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, identity session.Identity, slot ports.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store is down")
	}
	delete(s.data, s.key(identity, slot))
	return nil
}

type fakeCommerce struct {
	mu          sync.Mutex
	products    []ports.Product
	pageSize    int
	carts       map[session.Identity][]ports.CartItem
	customers   map[string]string
	addresses   map[session.Identity][]string
	locations   []pizzeria.FulfillmentLocation
	unavailable bool

	// rejectCarts makes cart mutations fail backend validation;
	// rejectCustomers does the same for customer creation.
	rejectCarts     bool
	rejectCustomers bool

	busy       map[session.Identity]bool
	overlapped bool
}

func newFakeCommerce(locations []pizzeria.FulfillmentLocation) *fakeCommerce {
	return &fakeCommerce{
		products: []ports.Product{
			{ID: "margherita", Name: "Margherita", Description: "Tomato, mozzarella, basil", Price: 50000, Available: 10},
			{ID: "pepperoni", Name: "Pepperoni", Description: "Pepperoni, mozzarella", Price: 60000, Available: 10},
			{ID: "truffle", Name: "Truffle", Description: "Truffle cream, mushrooms", Price: 90000, Available: 1},
		},
		pageSize:  8,
		carts:     make(map[session.Identity][]ports.CartItem),
		customers: make(map[string]string),
		addresses: make(map[session.Identity][]string),
		locations: locations,
		busy:      make(map[session.Identity]bool),
	}
}

// enter flags overlapping calls for the same identity. The engine promises
// per-identity serialization, so overlap is a bug.
func (c *fakeCommerce) enter(identity session.Identity) func() {
	c.mu.Lock()
	if c.busy[identity] {
		c.overlapped = true
	}
	c.busy[identity] = true
	c.mu.Unlock()

	time.Sleep(time.Millisecond)

	return func() {
		c.mu.Lock()
		c.busy[identity] = false
		c.mu.Unlock()
	}
}

func (c *fakeCommerce) check() error {
	if c.unavailable {
		return errs.NewBackendUnavailableError("commerce", errors.New("connection refused"))
	}
	return nil
}

func notFoundError(id string) error {
	return errs.NewObjectNotFoundError("product", id)
}

func stockError() error {
	return errs.ErrInsufficientStock
}

func validationError(detail string) error {
	return fmt.Errorf("%s: %w", detail, errs.ErrValidationFailed)
}

func (c *fakeCommerce) ListProducts(_ context.Context, page int) ([]ports.Product, ports.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return nil, ports.Page{}, err
	}

	total := (len(c.products) + c.pageSize - 1) / c.pageSize
	start := (page - 1) * c.pageSize
	if start >= len(c.products) {
		return nil, ports.Page{Current: page, Total: total}, nil
	}
	end := start + c.pageSize
	if end > len(c.products) {
		end = len(c.products)
	}
	return c.products[start:end], ports.Page{Current: page, Total: total}, nil
}

func (c *fakeCommerce) GetProduct(_ context.Context, productID string) (ports.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return ports.Product{}, err
	}

	for _, p := range c.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return ports.Product{}, notFoundError(productID)
}

func (c *fakeCommerce) AddToCart(
	_ context.Context, identity session.Identity, productID string, quantity int,
) (ports.Cart, error) {
	defer c.enter(identity)()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return ports.Cart{}, err
	}
	if c.rejectCarts {
		return ports.Cart{}, validationError("cart item rejected")
	}

	var product *ports.Product
	for i := range c.products {
		if c.products[i].ID == productID {
			product = &c.products[i]
		}
	}
	if product == nil {
		return ports.Cart{}, notFoundError(productID)
	}
	if quantity > product.Available {
		return ports.Cart{}, fmt.Errorf("want %d, have %d: %w", quantity, product.Available, stockError())
	}

	items := c.carts[identity]
	merged := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			items[i].LineTotal = items[i].Quantity * items[i].UnitPrice
			merged = true
		}
	}
	if !merged {
		items = append(items, ports.CartItem{
			ID:        "line-" + productID,
			ProductID: productID,
			Name:      product.Name,
			Quantity:  quantity,
			UnitPrice: product.Price,
			LineTotal: quantity * product.Price,
		})
	}
	c.carts[identity] = items

	return c.cartLocked(identity), nil
}

func (c *fakeCommerce) SetCartItemQuantity(
	_ context.Context, identity session.Identity, itemID string, quantity int,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}

	items := c.carts[identity]
	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		if quantity == 0 {
			c.carts[identity] = append(items[:i], items[i+1:]...)
			return nil
		}
		items[i].Quantity = quantity
		items[i].LineTotal = quantity * items[i].UnitPrice
		return nil
	}
	return notFoundError(itemID)
}

func (c *fakeCommerce) ClearCart(_ context.Context, identity session.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	delete(c.carts, identity)
	return nil
}

func (c *fakeCommerce) GetCart(_ context.Context, identity session.Identity) (ports.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return ports.Cart{}, err
	}
	return c.cartLocked(identity), nil
}

func (c *fakeCommerce) cartLocked(identity session.Identity) ports.Cart {
	items := c.carts[identity]
	cart := ports.Cart{Items: make([]ports.CartItem, len(items))}
	copy(cart.Items, items)
	for _, item := range items {
		cart.Total += item.LineTotal
	}
	return cart
}

func (c *fakeCommerce) CreateCustomerAddress(
	_ context.Context, identity session.Identity, address string, _ kernel.GeoPoint,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.addresses[identity] = append(c.addresses[identity], address)
	return nil
}

func (c *fakeCommerce) FindCustomerByContact(_ context.Context, contact string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return "", false, err
	}
	id, ok := c.customers[contact]
	return id, ok, nil
}

func (c *fakeCommerce) CreateCustomer(_ context.Context, contact string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return "", err
	}
	if c.rejectCustomers {
		return "", validationError("customer rejected")
	}
	id := "customer-" + contact
	c.customers[contact] = id
	return id, nil
}

func (c *fakeCommerce) ListFulfillmentLocations(_ context.Context) ([]pizzeria.FulfillmentLocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.locations, nil
}

type sentOptions struct {
	to   session.Identity
	text string
	rows [][]ports.Button
}

type courierNotice struct {
	contact string
	summary string
	point   kernel.GeoPoint
}

type recordMessenger struct {
	mu          sync.Mutex
	texts       []string
	options     []sentOptions
	alerts      []string
	courier     []courierNotice
	failCourier bool
}

func (m *recordMessenger) SendText(_ context.Context, _ session.Identity, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *recordMessenger) SendOptions(
	_ context.Context, to session.Identity, text string, rows [][]ports.Button,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = append(m.options, sentOptions{to: to, text: text, rows: rows})
	return nil
}

func (m *recordMessenger) SendAlert(_ context.Context, _ session.Identity, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, text)
	return nil
}

func (m *recordMessenger) NotifyCourier(
	_ context.Context, contact string, summary string, point kernel.GeoPoint,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCourier {
		return errs.NewBackendUnavailableError("chat api", errors.New("courier chat unreachable"))
	}
	m.courier = append(m.courier, courierNotice{contact: contact, summary: summary, point: point})
	return nil
}

func (m *recordMessenger) lastOptions(t *testing.T) sentOptions {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.options)
	return m.options[len(m.options)-1]
}

func (m *recordMessenger) lastText(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.texts)
	return m.texts[len(m.texts)-1]
}

func (m *recordMessenger) lastAlert(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.alerts)
	return m.alerts[len(m.alerts)-1]
}

type issuedPayment struct {
	identity  session.Identity
	lines     []ports.PaymentLine
	reference string
}

type precheckAnswer struct {
	id     string
	ok     bool
	reason string
}

type fakePayments struct {
	mu          sync.Mutex
	issued      []issuedPayment
	answers     []precheckAnswer
	failAnswers bool
}

func (p *fakePayments) IssuePaymentRequest(
	_ context.Context, identity session.Identity, lines []ports.PaymentLine, reference string,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, issuedPayment{identity: identity, lines: lines, reference: reference})
	return nil
}

func (p *fakePayments) AnswerPrecheck(_ context.Context, precheckID string, ok bool, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAnswers {
		return errs.NewBackendUnavailableError("chat api", errors.New("precheck answer failed"))
	}
	p.answers = append(p.answers, precheckAnswer{id: precheckID, ok: ok, reason: reason})
	return nil
}

func (p *fakePayments) lastIssued(t *testing.T) issuedPayment {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.issued)
	return p.issued[len(p.issued)-1]
}

func (p *fakePayments) lastAnswer(t *testing.T) precheckAnswer {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.answers)
	return p.answers[len(p.answers)-1]
}

type fakeGeocoder struct {
	points map[string]kernel.GeoPoint
}

func (g *fakeGeocoder) Resolve(_ context.Context, address string) (kernel.GeoPoint, error) {
	point, ok := g.points[address]
	if !ok {
		return kernel.GeoPoint{}, ports.ErrAddressNotFound
	}
	return point, nil
}

type scheduledTask struct {
	identity session.Identity
	delay    time.Duration
	payload  string
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []scheduledTask
	cancelled []session.Identity
}

func (s *fakeScheduler) ScheduleOnce(
	_ context.Context, identity session.Identity, delay time.Duration, payload string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, scheduledTask{identity: identity, delay: delay, payload: payload})
	return nil
}

func (s *fakeScheduler) Cancel(_ context.Context, identity session.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, identity)
	return nil
}

type fixture struct {
	engine    *engine.Engine
	store     *memStore
	commerce  *fakeCommerce
	messenger *recordMessenger
	payments  *fakePayments
	geocoder  *fakeGeocoder
	scheduler *fakeScheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	basePoint, err := kernel.NewGeoPoint(baseLat, baseLon)
	require.NoError(t, err)
	location, err := pizzeria.NewFulfillmentLocation("Tverskaya 1", basePoint, "courier-1")
	require.NoError(t, err)

	store := newMemStore()
	commerce := newFakeCommerce([]pizzeria.FulfillmentLocation{location})
	messenger := &recordMessenger{}
	payments := &fakePayments{}
	geocoder := &fakeGeocoder{points: map[string]kernel.GeoPoint{
		"Tverskaya 10":  pointAtKm(t, 0.2),
		"Arbat 12":      pointAtKm(t, 3.0),
		"Mytishchi 5":   pointAtKm(t, 12.0),
		"Zelenograd 33": pointAtKm(t, 35.0),
	}}
	scheduler := &fakeScheduler{}

	catalog, err := engine.NewLocationCatalog(commerce)
	require.NoError(t, err)
	require.NoError(t, catalog.Refresh(t.Context()))

	resolver, err := services.NewZoneResolver(services.DefaultTierTable())
	require.NoError(t, err)

	eng, err := engine.NewEngine(
		store, commerce, messenger, payments, geocoder, scheduler,
		resolver, catalog, time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)

	return &fixture{
		engine:    eng,
		store:     store,
		commerce:  commerce,
		messenger: messenger,
		payments:  payments,
		geocoder:  geocoder,
		scheduler: scheduler,
	}
}

func (f *fixture) stateOf(t *testing.T, identity session.Identity) string {
	t.Helper()
	raw, ok, err := f.store.Get(t.Context(), identity, ports.SlotState)
	require.NoError(t, err)
	if !ok {
		return ""
	}
	return string(raw)
}

func (f *fixture) handle(t *testing.T, ev engine.Event) {
	t.Helper()
	require.NoError(t, f.engine.Handle(t.Context(), ev))
}

func textEvent(identity session.Identity, text string) engine.Event {
	return engine.Event{Identity: identity, Kind: session.KindText, Text: text}
}

func callbackEvent(identity session.Identity, data string) engine.Event {
	return engine.Event{
		Identity:     identity,
		Kind:         session.KindCallback,
		CallbackID:   "cb-" + data,
		CallbackData: data,
	}
}

func locationEvent(identity session.Identity, point kernel.GeoPoint) engine.Event {
	return engine.Event{Identity: identity, Kind: session.KindLocationShare, Location: &point}
}

func precheckEvent(identity session.Identity, reference string) engine.Event {
	return engine.Event{
		Identity: identity,
		Kind:     session.KindPaymentPrecheck,
		Precheck: &engine.Precheck{ID: "pre-1", Reference: reference},
	}
}

func confirmEvent(identity session.Identity, reference string) engine.Event {
	return engine.Event{
		Identity: identity,
		Kind:     session.KindPaymentConfirmed,
		Payment:  &engine.Payment{Reference: reference},
	}
}
