// Package chatapi is the HTTP adapter for the bot-style chat platform API.
// It implements both the messenger and the payments ports: messages, button
// keyboards, callback alerts, courier notifications with a location pin,
// invoices, and precheck answers.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
)

// Client talks to the chat platform's bot API.
type Client struct {
	baseURL       string
	botToken      string
	providerToken string
	currency      string
	httpClient    *http.Client
}

// NewClient creates a chat API client. providerToken and currency are used
// for invoices only.
func NewClient(baseURL, botToken, providerToken, currency string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("base url")
	}
	if botToken == "" {
		return nil, errs.NewValueIsRequiredError("bot token")
	}
	if providerToken == "" {
		return nil, errs.NewValueIsRequiredError("provider token")
	}
	if currency == "" {
		return nil, errs.NewValueIsRequiredError("currency")
	}

	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		botToken:      botToken,
		providerToken: providerToken,
		currency:      currency,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type keyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]keyboardButton `json:"inline_keyboard"`
}

// SendText sends a plain message to the identity's conversation.
func (c *Client) SendText(ctx context.Context, to session.Identity, text string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id": to.String(),
		"text":    text,
	})
}

// SendOptions sends a message with rows of pressable buttons.
func (c *Client) SendOptions(
	ctx context.Context, to session.Identity, text string, rows [][]ports.Button,
) error {
	keyboard := make([][]keyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]keyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, keyboardButton{Text: b.Label, CallbackData: b.Data})
		}
		keyboard = append(keyboard, buttons)
	}

	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":      to.String(),
		"text":         text,
		"reply_markup": replyMarkup{InlineKeyboard: keyboard},
	})
}

// SendAlert answers a button press with a popup alert.
func (c *Client) SendAlert(ctx context.Context, _ session.Identity, callbackRef, text string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackRef,
		"text":              text,
		"show_alert":        true,
	})
}

// NotifyCourier sends the order summary and the customer's location pin to
// the courier's chat.
func (c *Client) NotifyCourier(
	ctx context.Context, courierContact string, summary string, point kernel.GeoPoint,
) error {
	if courierContact == "" {
		return errs.NewValueIsRequiredError("courier contact")
	}

	if err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id": courierContact,
		"text":    summary,
	}); err != nil {
		return err
	}

	return c.call(ctx, "sendLocation", map[string]any{
		"chat_id":   courierContact,
		"latitude":  point.Lat(),
		"longitude": point.Lon(),
	})
}

// IssuePaymentRequest sends the customer an invoice for the given lines.
func (c *Client) IssuePaymentRequest(
	ctx context.Context, identity session.Identity, lines []ports.PaymentLine, reference string,
) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("payment lines")
	}

	prices := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		prices = append(prices, map[string]any{
			"label":  line.Label,
			"amount": line.Amount,
		})
	}

	return c.call(ctx, "sendInvoice", map[string]any{
		"chat_id":        identity.String(),
		"title":          "Pizza order",
		"description":    "Payment for your pizza order with delivery",
		"payload":        reference,
		"provider_token": c.providerToken,
		"currency":       c.currency,
		"prices":         prices,
	})
}

// AnswerPrecheck accepts or rejects a pending precheck callback.
func (c *Client) AnswerPrecheck(ctx context.Context, precheckID string, ok bool, reason string) error {
	payload := map[string]any{
		"pre_checkout_query_id": precheckID,
		"ok":                    ok,
	}
	if !ok {
		payload["error_message"] = reason
	}

	return c.call(ctx, "answerPreCheckoutQuery", payload)
}

// call performs one bot API method invocation.
func (c *Client) call(ctx context.Context, method string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewBackendUnavailableError("chat api", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errs.NewBackendUnavailableError("chat api", err)
	}
	if !body.OK {
		return errs.NewBackendUnavailableError("chat api",
			fmt.Errorf("%s failed: %s", method, body.Description))
	}

	return nil
}
