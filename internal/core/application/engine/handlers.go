package engine

import (
	"context"
	"strconv"
	"strings"

	"pizzeria/internal/core/domain/model/session"
)

// handleBegin resets the conversation from any state and shows the menu.
// The confirmed-order marker is kept so payment dedup survives a reset.
func (e *Engine) handleBegin(ctx context.Context, sess *session.Session, _ Event) error {
	if err := e.scheduler.Cancel(ctx, sess.Identity()); err != nil {
		e.logger.WarnContext(ctx, "failed to cancel feedback prompt",
			"identity", sess.Identity(), "err", err)
	}

	sess.ClearSelection()
	sess.ClearDelivery()
	sess.ClearCartSummary()

	return e.showMenu(ctx, sess, 1)
}

// handleStart reacts to the first contact of an identity: any message or
// press opens the menu.
func (e *Engine) handleStart(ctx context.Context, sess *session.Session, _ Event) error {
	return e.showMenu(ctx, sess, 1)
}

func (e *Engine) handleBrowsingMenu(ctx context.Context, sess *session.Session, ev Event) error {
	data := ev.CallbackData
	switch {
	case data == cbCart:
		return e.showCart(ctx, sess)

	case strings.HasPrefix(data, cbPagePrefix):
		page, err := strconv.Atoi(strings.TrimPrefix(data, cbPagePrefix))
		if err != nil || page < 1 {
			e.notify(ctx, ev, "That page does not exist.")
			return nil
		}
		return e.showMenu(ctx, sess, page)

	case strings.HasPrefix(data, cbOpenPrefix):
		return e.showProduct(ctx, sess, strings.TrimPrefix(data, cbOpenPrefix))

	default:
		e.notify(ctx, ev, "Please pick an option from the menu.")
		return nil
	}
}

func (e *Engine) handleViewingItem(ctx context.Context, sess *session.Session, ev Event) error {
	data := ev.CallbackData
	switch {
	case data == cbMenu:
		sess.ClearSelection()
		return e.showMenu(ctx, sess, 1)

	case data == cbCart:
		sess.ClearSelection()
		return e.showCart(ctx, sess)

	case strings.HasPrefix(data, cbAddPrefix):
		quantity, err := strconv.Atoi(strings.TrimPrefix(data, cbAddPrefix))
		if err != nil || quantity < 1 {
			e.notify(ctx, ev, "Please pick one of the offered quantities.")
			return nil
		}

		selection := sess.Selection()
		if selection == nil {
			// Selection slot lost; send the customer back to the menu.
			return e.showMenu(ctx, sess, 1)
		}

		if _, err := e.commerce.AddToCart(ctx, sess.Identity(), selection.ProductID, quantity); err != nil {
			return err
		}

		e.notify(ctx, ev, "Added to your cart.")
		return nil

	default:
		e.notify(ctx, ev, "Please pick an option from the menu.")
		return nil
	}
}

func (e *Engine) handleReviewingCart(ctx context.Context, sess *session.Session, ev Event) error {
	switch ev.CallbackData {
	case cbMenu:
		return e.showMenu(ctx, sess, 1)

	case cbEdit:
		return e.showCartEditor(ctx, sess)

	case cbClear:
		if err := e.commerce.ClearCart(ctx, sess.Identity()); err != nil {
			return err
		}
		sess.ClearCartSummary()
		return e.showMenu(ctx, sess, 1)

	case cbCheckout:
		return e.startCheckout(ctx, sess, ev)

	default:
		e.notify(ctx, ev, "Please pick an option from the menu.")
		return nil
	}
}

func (e *Engine) handleEditingCart(ctx context.Context, sess *session.Session, ev Event) error {
	data := ev.CallbackData
	switch {
	case data == cbDone || data == cbCart:
		return e.showCart(ctx, sess)

	case strings.HasPrefix(data, cbQtyPrefix):
		itemID, quantity, ok := parseQuantityCallback(data)
		if !ok {
			e.notify(ctx, ev, "Please use the cart buttons.")
			return nil
		}

		if err := e.commerce.SetCartItemQuantity(ctx, sess.Identity(), itemID, quantity); err != nil {
			return err
		}
		return e.showCartEditor(ctx, sess)

	default:
		e.notify(ctx, ev, "Please use the cart buttons.")
		return nil
	}
}

// parseQuantityCallback splits "qty:<itemID>:<n>" into its parts.
// Negative quantities clamp to zero so the minus button on a single-unit
// line removes it.
func parseQuantityCallback(data string) (string, int, bool) {
	rest := strings.TrimPrefix(data, cbQtyPrefix)
	sep := strings.LastIndex(rest, ":")
	if sep <= 0 {
		return "", 0, false
	}

	quantity, err := strconv.Atoi(rest[sep+1:])
	if err != nil {
		return "", 0, false
	}
	if quantity < 0 {
		quantity = 0
	}

	return rest[:sep], quantity, true
}

func (e *Engine) showMenu(ctx context.Context, sess *session.Session, page int) error {
	products, paging, err := e.commerce.ListProducts(ctx, page)
	if err != nil {
		return err
	}

	text, rows := renderMenu(products, paging)
	if err := e.messenger.SendOptions(ctx, sess.Identity(), text, rows); err != nil {
		return err
	}

	return sess.MoveTo(session.StateBrowsingMenu)
}

func (e *Engine) showProduct(ctx context.Context, sess *session.Session, productID string) error {
	product, err := e.commerce.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if err := sess.SelectProduct(session.ProductSelection{
		ProductID:   product.ID,
		Description: product.Description,
		UnitPrice:   product.Price,
	}); err != nil {
		return err
	}

	text, rows := renderProduct(product)
	if err := e.messenger.SendOptions(ctx, sess.Identity(), text, rows); err != nil {
		return err
	}

	return sess.MoveTo(session.StateViewingItem)
}

func (e *Engine) showCart(ctx context.Context, sess *session.Session) error {
	cart, err := e.commerce.GetCart(ctx, sess.Identity())
	if err != nil {
		return err
	}

	// The rendered snapshot is cached so the checkout steps reuse it.
	if len(cart.Items) == 0 {
		sess.ClearCartSummary()
	} else {
		sess.SetCartSummary(renderCartSummary(cart))
	}

	text, rows := renderCart(cart)
	if err := e.messenger.SendOptions(ctx, sess.Identity(), text, rows); err != nil {
		return err
	}

	return sess.MoveTo(session.StateReviewingCart)
}

func (e *Engine) showCartEditor(ctx context.Context, sess *session.Session) error {
	cart, err := e.commerce.GetCart(ctx, sess.Identity())
	if err != nil {
		return err
	}

	text, rows := renderCartEditor(cart)
	if err := e.messenger.SendOptions(ctx, sess.Identity(), text, rows); err != nil {
		return err
	}

	return sess.MoveTo(session.StateEditingCart)
}
