package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
)

// paymentReference builds the opaque payload attached to a payment request.
// It carries both the identity and the order id so provider callbacks can be
// validated against the session they belong to.
func paymentReference(identity session.Identity, orderID kernel.UUID) string {
	return identity.String() + "/" + orderID.String()
}

func parseReference(reference string) (session.Identity, kernel.UUID, error) {
	sep := strings.LastIndex(reference, "/")
	if sep <= 0 {
		return "", kernel.UUID{}, errs.NewValueIsInvalidError("payment reference")
	}

	orderID, err := kernel.UUIDFromString(reference[sep+1:])
	if err != nil {
		return "", kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("payment reference", err)
	}

	return session.Identity(reference[:sep]), orderID, nil
}

func parseReferenceOrder(reference string) (kernel.UUID, error) {
	_, orderID, err := parseReference(reference)
	return orderID, err
}

// startCheckout snapshots the cart and asks for the delivery address.
func (e *Engine) startCheckout(ctx context.Context, sess *session.Session, ev Event) error {
	cart, err := e.commerce.GetCart(ctx, sess.Identity())
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		e.notify(ctx, ev, "Your cart is empty. Add something from the menu first.")
		return nil
	}

	sess.SetCartSummary(renderCartSummary(cart))

	if err := e.messenger.SendText(ctx, sess.Identity(),
		"Please send us your address as text, or share your location."); err != nil {
		return err
	}

	return sess.MoveTo(session.StateAwaitingAddress)
}

// handleAwaitingAddress turns the customer's address or location into a
// delivery quote and offers the fulfillment options for its tier.
func (e *Engine) handleAwaitingAddress(ctx context.Context, sess *session.Session, ev Event) error {
	var (
		address string
		point   kernel.GeoPoint
	)

	switch ev.Kind {
	case session.KindLocationShare:
		point = *ev.Location
	case session.KindText:
		address = strings.TrimSpace(ev.Text)
		if address == "" {
			e.notify(ctx, ev, "Please send us your address as text, or share your location.")
			return nil
		}

		resolved, err := e.geocoder.Resolve(ctx, address)
		if err != nil {
			return err
		}
		point = resolved
	default:
		e.notify(ctx, ev, "Please send us your address as text, or share your location.")
		return nil
	}

	quote, err := e.resolver.Resolve(point, e.catalog.Snapshot())
	if err != nil {
		return err
	}

	delivery := session.DeliveryRequest{
		Address:    address,
		Point:      point,
		Location:   quote.Location,
		DistanceKm: quote.DistanceKm,
		Tier:       quote.Tier,
		Fee:        quote.Fee,
	}
	if err := sess.SetDelivery(delivery); err != nil {
		return err
	}

	text, rows := renderFulfillmentOffer(delivery)
	if err := e.messenger.SendOptions(ctx, sess.Identity(), text, rows); err != nil {
		return err
	}

	return sess.MoveTo(session.StateChoosingFulfillment)
}

func (e *Engine) handleChoosingFulfillment(ctx context.Context, sess *session.Session, ev Event) error {
	delivery := sess.Delivery()
	if delivery == nil {
		// Delivery slot lost; restart the flow.
		return e.showMenu(ctx, sess, 1)
	}

	switch ev.CallbackData {
	case cbPickup:
		if err := e.messenger.SendText(ctx, sess.Identity(),
			fmt.Sprintf("You can pick your order up at %s. See you soon!",
				delivery.Location.Address())); err != nil {
			return err
		}

		sess.ClearDelivery()
		sess.ClearCartSummary()
		return sess.MoveTo(session.StateStart)

	case cbCancel:
		if err := e.commerce.ClearCart(ctx, sess.Identity()); err != nil {
			return err
		}

		sess.ClearDelivery()
		sess.ClearCartSummary()
		e.notify(ctx, ev, "Order cancelled.")
		return sess.MoveTo(session.StateStart)

	case cbDelivery:
		if !delivery.Tier.DeliveryOffered() {
			e.notify(ctx, ev, "Delivery is not available at your distance. Pickup only.")
			return nil
		}
		return e.issuePayment(ctx, sess, ev)

	default:
		e.notify(ctx, ev, "Please pick one of the offered options.")
		return nil
	}
}

// issuePayment registers the customer, builds the payment lines from the
// authoritative cart plus the delivery fee, and sends the payment request.
func (e *Engine) issuePayment(ctx context.Context, sess *session.Session, ev Event) error {
	identity := sess.Identity()

	if err := e.ensureCustomer(ctx, identity); err != nil {
		return err
	}

	cart, err := e.commerce.GetCart(ctx, identity)
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		e.notify(ctx, ev, "Your cart is empty. Add something from the menu first.")
		sess.ClearDelivery()
		sess.ClearCartSummary()
		return e.showMenu(ctx, sess, 1)
	}

	lines := make([]ports.PaymentLine, 0, len(cart.Items)+1)
	for _, item := range cart.Items {
		lines = append(lines, ports.PaymentLine{
			Label:  fmt.Sprintf("%s x%d", item.Name, item.Quantity),
			Amount: item.LineTotal,
		})
	}
	delivery := sess.Delivery()
	if delivery.Fee > 0 {
		lines = append(lines, ports.PaymentLine{Label: "Delivery", Amount: delivery.Fee})
	}

	orderID := kernel.NewUUID()
	if err := sess.AttachPaymentOrder(orderID); err != nil {
		return err
	}

	if err := e.payments.IssuePaymentRequest(ctx, identity, lines, paymentReference(identity, orderID)); err != nil {
		return err
	}

	return sess.MoveTo(session.StateAwaitingPaymentPrecheck)
}

// ensureCustomer upserts the commerce customer record for the identity.
// The record only enriches the backend; a rejected create never blocks
// checkout.
func (e *Engine) ensureCustomer(ctx context.Context, identity session.Identity) error {
	contact := identity.String()

	_, found, err := e.commerce.FindCustomerByContact(ctx, contact)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	if _, err := e.commerce.CreateCustomer(ctx, contact); err != nil {
		if !errors.Is(err, errs.ErrValidationFailed) {
			return err
		}
		e.logger.WarnContext(ctx, "customer record rejected, continuing checkout",
			"identity", identity, "err", err)
	}
	return nil
}

// handlePaymentPrecheck validates the provider's pre-authorization callback
// against the session that issued the payment request.
func (e *Engine) handlePaymentPrecheck(ctx context.Context, sess *session.Session, ev Event) error {
	delivery := sess.Delivery()
	if delivery == nil || delivery.OrderID.Validate() != nil {
		e.logger.WarnContext(ctx, "precheck without pending payment", "identity", sess.Identity())
		return e.payments.AnswerPrecheck(ctx, ev.Precheck.ID, false, "this payment request has expired")
	}

	identity, orderID, err := parseReference(ev.Precheck.Reference)
	if err != nil || identity != sess.Identity() || !orderID.IsEqual(delivery.OrderID) {
		e.logger.WarnContext(ctx, "rejecting mismatched precheck",
			"identity", sess.Identity(), "reference", ev.Precheck.Reference)
		return e.payments.AnswerPrecheck(ctx, ev.Precheck.ID, false, "this payment request is not valid")
	}

	if err := e.payments.AnswerPrecheck(ctx, ev.Precheck.ID, true, ""); err != nil {
		return err
	}

	return sess.MoveTo(session.StateAwaitingPaymentConfirmation)
}

// handlePaymentConfirmed completes a paid delivery order: notify the courier,
// persist the address, and arm the feedback prompt.
// The confirmed-order marker makes provider redeliveries no-ops.
func (e *Engine) handlePaymentConfirmed(ctx context.Context, sess *session.Session, ev Event) error {
	identity := sess.Identity()

	orderID, err := parseReferenceOrder(ev.Payment.Reference)
	if err != nil {
		e.logger.ErrorContext(ctx, "payment confirmation with unreadable reference",
			"identity", identity, "reference", ev.Payment.Reference)
		return nil
	}

	if sess.AlreadyConfirmed(orderID) {
		e.logger.InfoContext(ctx, "ignoring duplicate payment confirmation",
			"identity", identity, "order_id", orderID.String())
		return nil
	}

	delivery := sess.Delivery()
	if delivery == nil || !orderID.IsEqual(delivery.OrderID) {
		e.logger.ErrorContext(ctx, "payment confirmation does not match pending order",
			"identity", identity, "reference", ev.Payment.Reference)
		return nil
	}

	summary := sess.CartSummary()
	if summary == "" {
		summary = "Order details are in the commerce backend."
	}

	if err := e.messenger.NotifyCourier(ctx, delivery.Location.CourierContact(),
		renderCourierNotice(summary, *delivery), delivery.Point); err != nil {
		return err
	}

	address := delivery.Address
	if address == "" {
		address = fmt.Sprintf("%f,%f", delivery.Point.Lat(), delivery.Point.Lon())
	}
	if err := e.commerce.CreateCustomerAddress(ctx, identity, address, delivery.Point); err != nil {
		return err
	}

	if err := e.messenger.SendText(ctx, identity,
		"Thank you! Your order has been paid and the courier is on the way."); err != nil {
		return err
	}

	if err := e.scheduler.ScheduleOnce(ctx, identity, e.feedbackDelay, orderID.String()); err != nil {
		// The order went through; losing the prompt is not worth a redelivery.
		e.logger.WarnContext(ctx, "failed to schedule feedback prompt",
			"identity", identity, "err", err)
	}

	if err := sess.MarkConfirmed(orderID); err != nil {
		return err
	}
	sess.ClearDelivery()
	sess.ClearCartSummary()
	sess.ClearSelection()

	return sess.MoveTo(session.StateAwaitingFeedback)
}

func (e *Engine) handleAwaitingFeedback(ctx context.Context, sess *session.Session, ev Event) error {
	switch ev.CallbackData {
	case cbYes:
		// The delivered order is settled; an unanswered or negative prompt
		// keeps the cart so support can still inspect it.
		if err := e.commerce.ClearCart(ctx, sess.Identity()); err != nil {
			return err
		}

		if err := e.messenger.SendText(ctx, sess.Identity(),
			"Great! Enjoy your meal, and come back soon."); err != nil {
			return err
		}

	case cbNo:
		if err := e.messenger.SendText(ctx, sess.Identity(),
			"Sorry for the wait. The courier is on the way, hang tight."); err != nil {
			return err
		}

	default:
		e.notify(ctx, ev, "Please pick one of the offered options.")
		return nil
	}

	if err := e.scheduler.Cancel(ctx, sess.Identity()); err != nil {
		e.logger.WarnContext(ctx, "failed to cancel feedback prompt",
			"identity", sess.Identity(), "err", err)
	}

	return sess.MoveTo(session.StateStart)
}
