package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/domain/services"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
)

// beginCommand resets the conversation to the menu from any state.
const beginCommand = "/start"

// DefaultFeedbackDelay is how long after a confirmed delivery order the
// feedback prompt fires.
const DefaultFeedbackDelay = time.Hour

type handlerFunc func(ctx context.Context, sess *session.Session, ev Event) error

// Engine drives the pizza-ordering conversation. It receives inbound events,
// serializes them per identity, dispatches on (state, event kind), and
// persists the resulting session before acknowledging.
//
// Events for the same identity never interleave; events for different
// identities run concurrently. A handler error leaves the persisted session
// untouched, so the conversation stays exactly where it was.
type Engine struct {
	store     ports.SessionStore
	commerce  ports.Commerce
	messenger ports.Messenger
	payments  ports.Payments
	geocoder  ports.Geocoder
	scheduler ports.Scheduler

	resolver services.ZoneResolver
	catalog  *LocationCatalog

	feedbackDelay time.Duration
	logger        *slog.Logger

	handlers map[session.State]handlerFunc
	locks    sync.Map
}

// NewEngine wires the engine over its collaborators. The feedback delay
// falls back to DefaultFeedbackDelay when non-positive.
func NewEngine(
	store ports.SessionStore,
	commerce ports.Commerce,
	messenger ports.Messenger,
	payments ports.Payments,
	geocoder ports.Geocoder,
	scheduler ports.Scheduler,
	resolver services.ZoneResolver,
	catalog *LocationCatalog,
	feedbackDelay time.Duration,
	logger *slog.Logger,
) (*Engine, error) {
	if store == nil {
		return nil, errs.NewValueIsRequiredError("store")
	}
	if commerce == nil {
		return nil, errs.NewValueIsRequiredError("commerce")
	}
	if messenger == nil {
		return nil, errs.NewValueIsRequiredError("messenger")
	}
	if payments == nil {
		return nil, errs.NewValueIsRequiredError("payments")
	}
	if geocoder == nil {
		return nil, errs.NewValueIsRequiredError("geocoder")
	}
	if scheduler == nil {
		return nil, errs.NewValueIsRequiredError("scheduler")
	}
	if err := resolver.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errs.NewValueIsRequiredError("catalog")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}
	if feedbackDelay <= 0 {
		feedbackDelay = DefaultFeedbackDelay
	}

	engine := &Engine{
		store:         store,
		commerce:      commerce,
		messenger:     messenger,
		payments:      payments,
		geocoder:      geocoder,
		scheduler:     scheduler,
		resolver:      resolver,
		catalog:       catalog,
		feedbackDelay: feedbackDelay,
		logger:        logger.With("component", "engine"),
	}

	engine.handlers = map[session.State]handlerFunc{
		session.StateStart:                       engine.handleStart,
		session.StateBrowsingMenu:                engine.handleBrowsingMenu,
		session.StateViewingItem:                 engine.handleViewingItem,
		session.StateReviewingCart:               engine.handleReviewingCart,
		session.StateEditingCart:                 engine.handleEditingCart,
		session.StateAwaitingAddress:             engine.handleAwaitingAddress,
		session.StateChoosingFulfillment:         engine.handleChoosingFulfillment,
		session.StateAwaitingPaymentPrecheck:     engine.handlePaymentPrecheck,
		session.StateAwaitingPaymentConfirmation: engine.handlePaymentConfirmed,
		session.StateAwaitingFeedback:            engine.handleAwaitingFeedback,
	}
	for _, state := range session.AllStates() {
		if _, ok := engine.handlers[state]; !ok {
			return nil, fmt.Errorf("no handler for state %s", state)
		}
	}

	return engine, nil
}

// Handle processes one inbound event to completion: load, dispatch, persist.
// A nil return acknowledges the event; a non-nil return asks the transport
// to redeliver it.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	mu := e.lock(ev.Identity)
	mu.Lock()
	defer mu.Unlock()

	sess, err := loadSession(ctx, e.store, ev.Identity)
	if err != nil {
		return err
	}

	var handlerErr error
	switch {
	case ev.Kind == session.KindText && strings.TrimSpace(ev.Text) == beginCommand:
		handlerErr = e.handleBegin(ctx, sess, ev)
	case !sess.State().Accepts(ev.Kind):
		return e.rejectEvent(ctx, sess, ev)
	default:
		handlerErr = e.handlers[sess.State()](ctx, sess, ev)
	}

	if handlerErr != nil {
		// Provider callbacks carry money movements. Acknowledging one whose
		// side effects did not complete would lose the order, so any failure
		// surfaces and the provider redelivers the callback.
		notice, recoverable := recoverableNotice(handlerErr)
		if !recoverable || isProviderCallback(ev.Kind) {
			return handlerErr
		}

		e.logger.WarnContext(ctx, "event left session unchanged",
			"identity", ev.Identity, "state", sess.State().String(), "err", handlerErr)
		e.notify(ctx, ev, notice)
		return nil
	}

	return saveSession(ctx, e.store, sess)
}

// PromptFeedback sends the deferred feedback question. The scheduler calls
// it when the delay elapses; it no-ops when the conversation has moved on.
func (e *Engine) PromptFeedback(ctx context.Context, identity session.Identity) error {
	mu := e.lock(identity)
	mu.Lock()
	defer mu.Unlock()

	sess, err := loadSession(ctx, e.store, identity)
	if err != nil {
		return err
	}
	if sess.State() != session.StateAwaitingFeedback {
		return nil
	}

	text, rows := renderFeedbackPrompt()
	return e.messenger.SendOptions(ctx, identity, text, rows)
}

// isProviderCallback reports whether the event came from the payment
// provider rather than the customer.
func isProviderCallback(kind session.EventKind) bool {
	return kind == session.KindPaymentPrecheck || kind == session.KindPaymentConfirmed
}

// lock returns the mutex serializing one identity's events.
func (e *Engine) lock(identity session.Identity) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(identity, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// rejectEvent handles an event whose kind the current state does not accept.
// The session is never saved on this path.
func (e *Engine) rejectEvent(ctx context.Context, sess *session.Session, ev Event) error {
	err := errs.NewValueIsInvalidErrorWithCause("event",
		fmt.Errorf("%w: state %s does not accept %s", errs.ErrIllegalTransition, sess.State(), ev.Kind))

	switch ev.Kind {
	case session.KindPaymentPrecheck:
		// The payment request this precheck belongs to is no longer pending.
		e.logger.WarnContext(ctx, "rejecting stale precheck",
			"identity", ev.Identity, "state", sess.State().String())
		return e.payments.AnswerPrecheck(ctx, ev.Precheck.ID, false, "this payment request has expired")
	case session.KindPaymentConfirmed:
		if orderID, parseErr := parseReferenceOrder(ev.Payment.Reference); parseErr == nil && sess.AlreadyConfirmed(orderID) {
			// Provider redelivery of an order we already processed.
			e.logger.InfoContext(ctx, "ignoring duplicate payment confirmation",
				"identity", ev.Identity, "order_id", orderID.String())
			return nil
		}
		// Money captured but the conversation is elsewhere. Needs a human.
		e.logger.ErrorContext(ctx, "payment confirmation in unexpected state",
			"identity", ev.Identity, "state", sess.State().String(), "reference", ev.Payment.Reference)
		return nil
	case session.KindText, session.KindCallback, session.KindLocationShare, session.KindUnknown:
	}

	e.logger.DebugContext(ctx, "event rejected",
		"identity", ev.Identity, "state", sess.State().String(), "kind", ev.Kind.String(), "err", err)
	e.notify(ctx, ev, "That action is not available right now.")
	return nil
}

// notify tells the customer something went sideways without changing state.
// Button presses get an alert on the press itself, everything else a message.
// Best effort only.
func (e *Engine) notify(ctx context.Context, ev Event, text string) {
	var err error
	if ev.Kind == session.KindCallback && ev.CallbackID != "" {
		err = e.messenger.SendAlert(ctx, ev.Identity, ev.CallbackID, text)
	} else {
		err = e.messenger.SendText(ctx, ev.Identity, text)
	}
	if err != nil {
		e.logger.WarnContext(ctx, "failed to notify customer", "identity", ev.Identity, "err", err)
	}
}

// recoverableNotice maps expected domain outcomes to the message shown to
// the customer. Anything unmapped propagates and triggers redelivery.
func recoverableNotice(err error) (string, bool) {
	switch {
	case errors.Is(err, errs.ErrInsufficientStock):
		return "Sorry, we do not have that many in stock right now.", true
	case errors.Is(err, ports.ErrAddressNotFound):
		return "We could not find that address. Please try again, or share your location.", true
	case errors.Is(err, errs.ErrObjectNotFound):
		return "That item is not available anymore.", true
	case errors.Is(err, errs.ErrValidationFailed):
		return "We could not process that. Please check your order and try again.", true
	case errors.Is(err, errs.ErrBackendUnavailable):
		return "The service is temporarily unavailable. Please try again in a moment.", true
	case errors.Is(err, services.ErrNoFulfillmentLocations):
		return "No pizzeria can take orders right now. Please try again later.", true
	default:
		return "", false
	}
}
