// Package http is the inbound webhook adapter. The chat platform delivers
// updates as JSON POSTs; the server maps each update to a conversation event
// and acknowledges only after the engine has fully processed it, so failed
// events get redelivered.
package http

import (
	"context"
	"net/http"
	"strconv"

	"pizzeria/internal/core/application/engine"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// secretTokenHeader carries the webhook secret the chat platform echoes
// back on every delivery.
const secretTokenHeader = "X-Bot-Api-Secret-Token"

// EventHandler processes one inbound conversation event to completion.
// *engine.Engine satisfies it.
type EventHandler interface {
	Handle(ctx context.Context, ev engine.Event) error
}

// Server handles webhook deliveries from the chat platform.
type Server struct {
	handler EventHandler
	secret  string
}

// NewServer creates a webhook server over the conversation engine.
// An empty secret disables the secret-token check.
func NewServer(handler EventHandler, secret string) (*Server, error) {
	if handler == nil {
		return nil, errs.NewValueIsRequiredError("handler")
	}

	return &Server{handler: handler, secret: secret}, nil
}

// RegisterRoutes attaches the webhook and health endpoints.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhook", s.HandleWebhook)
	e.GET("/health", s.HandleHealth)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type chatDTO struct {
	ID int64 `json:"id"`
}

type locationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type messageDTO struct {
	Chat              chatDTO      `json:"chat"`
	Text              string       `json:"text"`
	Location          *locationDTO `json:"location"`
	SuccessfulPayment *struct {
		InvoicePayload string `json:"invoice_payload"`
		TotalAmount    int    `json:"total_amount"`
	} `json:"successful_payment"`
}

type callbackQueryDTO struct {
	ID   string  `json:"id"`
	From chatDTO `json:"from"`
	Data string  `json:"data"`
}

type precheckQueryDTO struct {
	ID             string  `json:"id"`
	From           chatDTO `json:"from"`
	InvoicePayload string  `json:"invoice_payload"`
	TotalAmount    int     `json:"total_amount"`
}

type updateDTO struct {
	UpdateID         int64             `json:"update_id"`
	Message          *messageDTO       `json:"message"`
	CallbackQuery    *callbackQueryDTO `json:"callback_query"`
	PreCheckoutQuery *precheckQueryDTO `json:"pre_checkout_query"`
}

// HandleWebhook handles POST /webhook - one update from the chat platform.
// Updates that carry no recognizable event are acknowledged and dropped.
func (s *Server) HandleWebhook(ctx echo.Context) error {
	if s.secret != "" && ctx.Request().Header.Get(secretTokenHeader) != s.secret {
		return ctx.NoContent(http.StatusUnauthorized)
	}

	var update updateDTO
	if err := ctx.Bind(&update); err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	ev, ok, err := toEvent(update)
	if err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}
	if !ok {
		return ctx.NoContent(http.StatusOK)
	}

	if err := s.handler.Handle(ctx.Request().Context(), ev); err != nil {
		// Non-2xx asks the platform to redeliver the update.
		return ctx.NoContent(http.StatusInternalServerError)
	}

	return ctx.NoContent(http.StatusOK)
}

// toEvent maps an update to the engine event it carries. The boolean is
// false for update shapes the bot does not consume.
func toEvent(update updateDTO) (engine.Event, bool, error) {
	switch {
	case update.CallbackQuery != nil:
		return engine.Event{
			Identity:     chatIdentity(update.CallbackQuery.From.ID),
			Kind:         session.KindCallback,
			CallbackID:   update.CallbackQuery.ID,
			CallbackData: update.CallbackQuery.Data,
		}, true, nil

	case update.PreCheckoutQuery != nil:
		return engine.Event{
			Identity: chatIdentity(update.PreCheckoutQuery.From.ID),
			Kind:     session.KindPaymentPrecheck,
			Precheck: &engine.Precheck{
				ID:        update.PreCheckoutQuery.ID,
				Reference: update.PreCheckoutQuery.InvoicePayload,
				Amount:    update.PreCheckoutQuery.TotalAmount,
			},
		}, true, nil

	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		return engine.Event{
			Identity: chatIdentity(update.Message.Chat.ID),
			Kind:     session.KindPaymentConfirmed,
			Payment: &engine.Payment{
				Reference: update.Message.SuccessfulPayment.InvoicePayload,
				Amount:    update.Message.SuccessfulPayment.TotalAmount,
			},
		}, true, nil

	case update.Message != nil && update.Message.Location != nil:
		point, err := kernel.NewGeoPoint(update.Message.Location.Latitude, update.Message.Location.Longitude)
		if err != nil {
			return engine.Event{}, false, err
		}
		return engine.Event{
			Identity: chatIdentity(update.Message.Chat.ID),
			Kind:     session.KindLocationShare,
			Location: &point,
		}, true, nil

	case update.Message != nil && update.Message.Text != "":
		return engine.Event{
			Identity: chatIdentity(update.Message.Chat.ID),
			Kind:     session.KindText,
			Text:     update.Message.Text,
		}, true, nil

	default:
		return engine.Event{}, false, nil
	}
}

func chatIdentity(id int64) session.Identity {
	return session.Identity(strconv.FormatInt(id, 10))
}
