package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mifarmacia/storefront/internal/checkout/journal"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

var (
	// ErrEmptyCart rejects confirmation of a cart without lines.
	ErrEmptyCart = errors.New("checkout: cart is empty")

	// ErrInvalidAmount guards against floating-point or missing-cart edge
	// cases: the total must convert to a positive whole number of cents.
	ErrInvalidAmount = errors.New("checkout: total is not a positive whole number of cents")

	// ErrNotConfirmable is returned when confirm is attempted before the
	// wizard reached review.
	ErrNotConfirmable = errors.New("checkout: wizard has not reached review")

	// ErrCardRequired is returned for a card checkout without card details.
	ErrCardRequired = errors.New("checkout: card details are required for card payment")
)

// DeclinedError carries the payment processor's message verbatim. The
// invoice is never created when this is returned; recovery is user-initiated
// resubmission.
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string { return e.Message }

// PaymentIntentRequest is what the backend needs to issue a client secret.
type PaymentIntentRequest struct {
	AmountCents int64
	ClientID    int64
	SellerDPI   string
	ClientDPI   string
	Items       []entity.InvoiceItem
}

// Gateway is the slice of the backend this package calls during
// confirmation.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*entity.PaymentIntent, error)
	CreateInvoice(ctx context.Context, draft entity.InvoiceDraft) error
}

// CardConfirmer exchanges a client secret and card details for a confirmed
// charge. See the payment adapter for the HTTP implementation.
type CardConfirmer interface {
	ConfirmCardPayment(ctx context.Context, clientSecret string, card entity.CardDetails, billingName string) (*entity.PaymentResult, error)
}

// ConfirmInput is everything one confirmation attempt needs. Card is nil for
// cash checkouts.
type ConfirmInput struct {
	CartID     string
	Cart       *entity.Cart
	Wizard     *Wizard
	ClientID   int64
	ClientName string
	SellerDPI  string
	Card       *entity.CardDetails
}

// Receipt summarises a successful confirmation.
type Receipt struct {
	AttemptID       string
	Total           decimal.Decimal
	AmountCents     int64
	PaymentMethod   entity.PaymentMethod
	PaymentIntentID string
}

// AmountCents converts a decimal total to integer minor units. It fails for
// zero, negative, or fractional-cent totals.
func AmountCents(total decimal.Decimal) (int64, error) {
	cents := total.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() || cents.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// Orchestrator runs the confirmation pipeline as a sequence of named steps,
// journaling every transition. There is no automatic compensation: a
// declined charge is terminal for the attempt and the backend owns refunds.
type Orchestrator struct {
	gateway Gateway
	cards   CardConfirmer
	log     journal.Repository // nil-safe: journaling skipped if nil
}

// NewOrchestrator wires the confirmation pipeline. log may be nil, in which
// case attempt transitions are not persisted.
func NewOrchestrator(gateway Gateway, cards CardConfirmer, log journal.Repository) *Orchestrator {
	return &Orchestrator{gateway: gateway, cards: cards, log: log}
}

// Confirm executes the terminal checkout action once. The caller is
// responsible for clearing the cart and evicting wizard state on success,
// and for the one-in-flight gate around this call.
func (o *Orchestrator) Confirm(ctx context.Context, in ConfirmInput) (*Receipt, error) {
	if in.Wizard == nil || !in.Wizard.CanConfirm() {
		return nil, ErrNotConfirmable
	}
	if in.Cart == nil || in.Cart.Len() == 0 {
		return nil, ErrEmptyCart
	}

	total := in.Cart.Total()
	cents, err := AmountCents(total)
	if err != nil {
		return nil, err
	}

	method := in.Wizard.PaymentMethod
	if method == entity.PaymentCard && in.Card == nil {
		return nil, ErrCardRequired
	}

	attemptID := uuid.NewString()
	state := &attemptState{}

	draft := entity.InvoiceDraft{
		ClientID:      in.ClientID,
		SellerDPI:     in.SellerDPI,
		ClientDPI:     in.Wizard.Customer.DPI,
		PaymentMethod: method,
		Items:         entity.InvoiceItemsFromCart(in.Cart),
	}

	var steps []Step
	if method == entity.PaymentCard {
		steps = append(steps,
			&createIntentStep{
				gateway: o.gateway,
				state:   state,
				request: PaymentIntentRequest{
					AmountCents: cents,
					ClientID:    in.ClientID,
					SellerDPI:   in.SellerDPI,
					ClientDPI:   in.Wizard.Customer.DPI,
					Items:       draft.Items,
				},
			},
			&confirmCardStep{
				cards:       o.cards,
				state:       state,
				card:        *in.Card,
				billingName: in.ClientName,
			},
		)
	}
	steps = append(steps, &createInvoiceStep{
		gateway: o.gateway,
		state:   state,
		draft:   draft,
	})

	o.journal(ctx, journal.NewEntry(ctx, attemptID, in.CartID, journal.StatusStarted, "", startPayload(in, cents), nil))

	for _, step := range steps {
		slog.InfoContext(ctx, "executing checkout step",
			"attempt_id", attemptID, "cart_id", in.CartID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.ErrorContext(ctx, "checkout step failed",
				"attempt_id", attemptID, "step", step.Name(), "error", err)
			o.journal(ctx, journal.NewEntry(ctx, attemptID, in.CartID, journal.StatusFailed, step.Name(), "", []string{err.Error()}))
			return nil, err
		}
		o.journal(ctx, journal.NewEntry(ctx, attemptID, in.CartID, journal.StatusStepDone, step.Name(), "", nil))
	}

	o.journal(ctx, journal.NewEntry(ctx, attemptID, in.CartID, journal.StatusCompleted, "", "", nil))
	slog.InfoContext(ctx, "checkout completed",
		"attempt_id", attemptID, "cart_id", in.CartID, "amount_cents", cents, "payment_method", method)

	return &Receipt{
		AttemptID:       attemptID,
		Total:           total,
		AmountCents:     cents,
		PaymentMethod:   method,
		PaymentIntentID: state.intentID,
	}, nil
}

func (o *Orchestrator) journal(ctx context.Context, entry *journal.Entry) {
	if o.log == nil {
		return
	}
	if err := o.log.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to persist checkout log entry",
			"attempt_id", entry.AttemptID, "status", entry.Status, "error", err)
	}
}

// startPayload serialises the attempt input for the STARTED row. Card
// details are deliberately excluded.
func startPayload(in ConfirmInput, cents int64) string {
	b, err := json.Marshal(map[string]any{
		"cart_id":        in.CartID,
		"client_id":      in.ClientID,
		"client_dpi":     in.Wizard.Customer.DPI,
		"seller_dpi":     in.SellerDPI,
		"payment_method": in.Wizard.PaymentMethod,
		"amount_cents":   cents,
		"line_count":     in.Cart.Len(),
	})
	if err != nil {
		return fmt.Sprintf(`{"cart_id":%q}`, in.CartID)
	}
	return string(b)
}
