package ports

import (
	"context"

	"pizzeria/internal/core/domain/model/session"
)

// PaymentLine is one labeled amount on a payment request.
type PaymentLine struct {
	Label string
	// Amount is in minor currency units.
	Amount int
}

// Payments is the outbound contract to the payment provider.
// The provider answers with a precheck callback first and a confirmation
// event after capture; both arrive as inbound events, not through this port.
type Payments interface {
	// IssuePaymentRequest sends the customer an invoice for the given lines.
	// The reference is echoed back in the provider's precheck callback and is
	// validated against the originating identity before acceptance.
	IssuePaymentRequest(ctx context.Context, identity session.Identity, lines []PaymentLine, reference string) error

	// AnswerPrecheck accepts or rejects a pending precheck callback.
	AnswerPrecheck(ctx context.Context, precheckID string, ok bool, reason string) error
}
