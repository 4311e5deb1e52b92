package engine

import (
	"fmt"
	"strings"

	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/ports"
)

// Callback payloads of the buttons the engine offers. The webhook adapter
// echoes them back verbatim, so they double as the engine's input grammar.
const (
	cbMenu     = "menu"
	cbCart     = "cart"
	cbEdit     = "edit"
	cbClear    = "clear"
	cbCheckout = "checkout"
	cbDone     = "done"
	cbPickup   = "pickup"
	cbDelivery = "delivery"
	cbCancel   = "cancel"
	cbYes      = "yes"
	cbNo       = "no"

	cbOpenPrefix = "open:"
	cbPagePrefix = "page:"
	cbAddPrefix  = "add:"
	cbQtyPrefix  = "qty:"
)

// formatMoney renders minor currency units as a decimal amount.
func formatMoney(minor int) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

func renderMenu(products []ports.Product, page ports.Page) (string, [][]ports.Button) {
	rows := make([][]ports.Button, 0, len(products)+2)
	for _, p := range products {
		rows = append(rows, []ports.Button{{
			Label: fmt.Sprintf("%s (%s)", p.Name, formatMoney(p.Price)),
			Data:  cbOpenPrefix + p.ID,
		}})
	}

	var paging []ports.Button
	if page.Current > 1 {
		paging = append(paging, ports.Button{
			Label: "Previous",
			Data:  fmt.Sprintf("%s%d", cbPagePrefix, page.Current-1),
		})
	}
	if page.Current < page.Total {
		paging = append(paging, ports.Button{
			Label: "Next",
			Data:  fmt.Sprintf("%s%d", cbPagePrefix, page.Current+1),
		})
	}
	if len(paging) > 0 {
		rows = append(rows, paging)
	}
	rows = append(rows, []ports.Button{{Label: "Cart", Data: cbCart}})

	text := "Our menu:"
	if page.Total > 1 {
		text = fmt.Sprintf("Our menu (page %d of %d):", page.Current, page.Total)
	}
	return text, rows
}

func renderProduct(p ports.Product) (string, [][]ports.Button) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\nPrice: %s", p.Name, p.Description, formatMoney(p.Price))
	if p.Available == 0 {
		b.WriteString("\n\nSold out.")
	}

	rows := [][]ports.Button{
		{
			{Label: "1 pc", Data: cbAddPrefix + "1"},
			{Label: "3 pcs", Data: cbAddPrefix + "3"},
			{Label: "5 pcs", Data: cbAddPrefix + "5"},
		},
		{
			{Label: "Back to menu", Data: cbMenu},
			{Label: "Cart", Data: cbCart},
		},
	}
	return b.String(), rows
}

// renderCartSummary builds the plain-text cart snapshot that is cached in
// the session and reused for the courier notification.
func renderCartSummary(cart ports.Cart) string {
	if len(cart.Items) == 0 {
		return "Your cart is empty."
	}

	var b strings.Builder
	for _, item := range cart.Items {
		fmt.Fprintf(&b, "%s\n%d x %s = %s\n\n",
			item.Name, item.Quantity, formatMoney(item.UnitPrice), formatMoney(item.LineTotal))
	}
	fmt.Fprintf(&b, "Total: %s", formatMoney(cart.Total))
	return b.String()
}

func renderCart(cart ports.Cart) (string, [][]ports.Button) {
	if len(cart.Items) == 0 {
		return "Your cart is empty.", [][]ports.Button{
			{{Label: "Back to menu", Data: cbMenu}},
		}
	}

	rows := [][]ports.Button{
		{
			{Label: "Edit", Data: cbEdit},
			{Label: "Clear", Data: cbClear},
		},
		{
			{Label: "Back to menu", Data: cbMenu},
			{Label: "Checkout", Data: cbCheckout},
		},
	}
	return renderCartSummary(cart), rows
}

func renderCartEditor(cart ports.Cart) (string, [][]ports.Button) {
	if len(cart.Items) == 0 {
		return "Your cart is empty.", [][]ports.Button{
			{{Label: "Back to cart", Data: cbDone}},
		}
	}

	rows := make([][]ports.Button, 0, len(cart.Items)+1)
	for _, item := range cart.Items {
		rows = append(rows, []ports.Button{
			{
				Label: fmt.Sprintf("- %s", item.Name),
				Data:  fmt.Sprintf("%s%s:%d", cbQtyPrefix, item.ID, item.Quantity-1),
			},
			{
				Label: fmt.Sprintf("+ %s", item.Name),
				Data:  fmt.Sprintf("%s%s:%d", cbQtyPrefix, item.ID, item.Quantity+1),
			},
			{
				Label: fmt.Sprintf("Remove %s", item.Name),
				Data:  fmt.Sprintf("%s%s:0", cbQtyPrefix, item.ID),
			},
		})
	}
	rows = append(rows, []ports.Button{{Label: "Back to cart", Data: cbDone}})

	return renderCartSummary(cart), rows
}

func renderFulfillmentOffer(delivery session.DeliveryRequest) (string, [][]ports.Button) {
	pickupRow := []ports.Button{{Label: "Pickup", Data: cbPickup}}
	cancelRow := []ports.Button{{Label: "Cancel", Data: cbCancel}}

	switch delivery.Tier {
	case pizzeria.TierFree:
		return fmt.Sprintf(
				"The nearest pizzeria is just %.0f m away at %s. "+
					"We can deliver for free, or you can pick the order up yourself.",
				delivery.DistanceKm*1000, delivery.Location.Address()),
			[][]ports.Button{
				{{Label: "Free delivery", Data: cbDelivery}},
				pickupRow,
				cancelRow,
			}
	case pizzeria.TierStandard, pizzeria.TierExtended:
		return fmt.Sprintf(
				"The nearest pizzeria is %.1f km away at %s. "+
					"Delivery costs %s, or you can pick the order up yourself.",
				delivery.DistanceKm, delivery.Location.Address(), formatMoney(delivery.Fee)),
			[][]ports.Button{
				{{Label: fmt.Sprintf("Delivery (%s)", formatMoney(delivery.Fee)), Data: cbDelivery}},
				pickupRow,
				cancelRow,
			}
	case pizzeria.TierPickupOnly, pizzeria.TierUnknown:
	}

	return fmt.Sprintf(
			"You are %.1f km away from the nearest pizzeria at %s. "+
				"That is too far for delivery, but pickup is available.",
			delivery.DistanceKm, delivery.Location.Address()),
		[][]ports.Button{pickupRow, cancelRow}
}

func renderCourierNotice(summary string, delivery session.DeliveryRequest) string {
	var b strings.Builder
	b.WriteString("New delivery order.\n\n")
	b.WriteString(summary)
	fmt.Fprintf(&b, "\nDelivery fee: %s", formatMoney(delivery.Fee))
	if delivery.Address != "" {
		fmt.Fprintf(&b, "\nAddress: %s", delivery.Address)
	}
	return b.String()
}

func renderFeedbackPrompt() (string, [][]ports.Button) {
	return "Did your order arrive? Enjoy your meal!", [][]ports.Button{
		{
			{Label: "All good", Data: cbYes},
			{Label: "Still waiting", Data: cbNo},
		},
	}
}
