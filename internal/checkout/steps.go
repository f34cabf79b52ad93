package checkout

import (
	"context"
	"fmt"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// Step represents a single unit of work in the confirmation pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
}

// attemptState is shared between the steps of one attempt: the intent
// created by the first step is consumed by the ones after it.
type attemptState struct {
	intent   *entity.PaymentIntent
	intentID string
}

// --- createIntentStep ---

// createIntentStep asks the backend for a payment intent covering the
// attempt's amount and stashes the returned client secret.
type createIntentStep struct {
	gateway Gateway
	state   *attemptState
	request PaymentIntentRequest
}

func (s *createIntentStep) Name() string { return "create_payment_intent" }

func (s *createIntentStep) Execute(ctx context.Context) error {
	intent, err := s.gateway.CreatePaymentIntent(ctx, s.request)
	if err != nil {
		return fmt.Errorf("create payment intent: %w", err)
	}
	if intent == nil || intent.ClientSecret == "" {
		return fmt.Errorf("create payment intent: backend returned no client secret")
	}
	s.state.intent = intent
	s.state.intentID = intent.ID
	return nil
}

// --- confirmCardStep ---

// confirmCardStep exchanges the client secret for a confirmed charge. A
// processor-reported failure becomes a *DeclinedError with the message
// intact so it can be surfaced to the user verbatim.
type confirmCardStep struct {
	cards       CardConfirmer
	state       *attemptState
	card        entity.CardDetails
	billingName string
}

func (s *confirmCardStep) Name() string { return "confirm_card" }

func (s *confirmCardStep) Execute(ctx context.Context) error {
	result, err := s.cards.ConfirmCardPayment(ctx, s.state.intent.ClientSecret, s.card, s.billingName)
	if err != nil {
		return fmt.Errorf("confirm card payment: %w", err)
	}
	if !result.Succeeded {
		return &DeclinedError{Message: result.Message}
	}
	if result.IntentID != "" {
		s.state.intentID = result.IntentID
	}
	return nil
}

// --- createInvoiceStep ---

// createInvoiceStep asks the backend to record the sale. For card checkouts
// the confirmed intent id is attached so the backend can reconcile the
// charge.
type createInvoiceStep struct {
	gateway Gateway
	state   *attemptState
	draft   entity.InvoiceDraft
}

func (s *createInvoiceStep) Name() string { return "create_invoice" }

func (s *createInvoiceStep) Execute(ctx context.Context) error {
	draft := s.draft
	draft.PaymentIntentID = s.state.intentID
	if err := s.gateway.CreateInvoice(ctx, draft); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}
