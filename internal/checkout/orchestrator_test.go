package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mifarmacia/storefront/internal/checkout/journal"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

func cartWith(t *testing.T, price string, quantity int) *entity.Cart {
	t.Helper()
	c := entity.NewCart()
	require.NoError(t, c.AddItem(entity.Product{
		ID:    1,
		Name:  "Aspirina",
		Price: decimal.RequireFromString(price),
		Stock: 100,
	}, quantity))
	return c
}

func reviewWizard(method entity.PaymentMethod) *Wizard {
	return &Wizard{
		Stage:          StageReview,
		Customer:       entity.CustomerInfo{Username: "maria", DPI: "1234567890123"},
		PaymentMethod:  method,
		ShippingMethod: ShippingPickup,
	}
}

func TestConfirmCash(t *testing.T) {
	gw := &mockGateway{}
	cards := &mockConfirmer{}
	log := &mockJournal{}
	orc := NewOrchestrator(gw, cards, log)

	receipt, err := orc.Confirm(context.Background(), ConfirmInput{
		CartID:    "cart-1",
		Cart:      cartWith(t, "12.50", 2),
		Wizard:    reviewWizard(entity.PaymentCash),
		ClientID:  7,
		SellerDPI: "9999999999999",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2500), receipt.AmountCents)
	assert.Equal(t, entity.PaymentCash, receipt.PaymentMethod)
	assert.Empty(t, receipt.PaymentIntentID)

	assert.Zero(t, gw.intentCalls, "cash checkout must not touch the processor")
	assert.Zero(t, cards.calls)
	require.Len(t, gw.invoices, 1)
	inv := gw.invoices[0]
	assert.Equal(t, int64(7), inv.ClientID)
	assert.Equal(t, "9999999999999", inv.SellerDPI)
	assert.Equal(t, "1234567890123", inv.ClientDPI)
	assert.Equal(t, entity.PaymentCash, inv.PaymentMethod)
	assert.Empty(t, inv.PaymentIntentID)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "12.50", inv.Items[0].WireUnitPrice())

	assert.Equal(t,
		[]journal.Status{journal.StatusStarted, journal.StatusStepDone, journal.StatusCompleted},
		log.statuses())
}

func TestConfirmCard(t *testing.T) {
	gw := &mockGateway{intent: &entity.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret_abc"}}
	cards := &mockConfirmer{result: &entity.PaymentResult{Succeeded: true, IntentID: "pi_1"}}
	orc := NewOrchestrator(gw, cards, nil)

	receipt, err := orc.Confirm(context.Background(), ConfirmInput{
		CartID:     "cart-1",
		Cart:       cartWith(t, "100.00", 1),
		Wizard:     reviewWizard(entity.PaymentCard),
		ClientID:   7,
		ClientName: "María López",
		Card:       &entity.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10000), receipt.AmountCents)
	assert.Equal(t, "pi_1", receipt.PaymentIntentID)

	require.Equal(t, 1, gw.intentCalls)
	assert.Equal(t, int64(10000), gw.lastIntentReq.AmountCents)

	require.Equal(t, 1, cards.calls)
	assert.Equal(t, "pi_1_secret_abc", cards.lastSecret)
	assert.Equal(t, "María López", cards.lastBillingName)

	require.Len(t, gw.invoices, 1)
	assert.Equal(t, "pi_1", gw.invoices[0].PaymentIntentID)
}

func TestConfirmCardDeclined(t *testing.T) {
	gw := &mockGateway{intent: &entity.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret_abc"}}
	cards := &mockConfirmer{result: &entity.PaymentResult{Succeeded: false, Message: "Your card was declined."}}
	log := &mockJournal{}
	orc := NewOrchestrator(gw, cards, log)

	_, err := orc.Confirm(context.Background(), ConfirmInput{
		CartID: "cart-1",
		Cart:   cartWith(t, "100.00", 1),
		Wizard: reviewWizard(entity.PaymentCard),
		Card:   &entity.CardDetails{Number: "4000000000000002"},
	})

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "Your card was declined.", declined.Message, "processor message must surface verbatim")
	assert.Empty(t, gw.invoices, "declined payment must never create an invoice")
	assert.Equal(t, journal.StatusFailed, log.entries[len(log.entries)-1].Status)
}

func TestConfirmRejections(t *testing.T) {
	orc := NewOrchestrator(&mockGateway{}, &mockConfirmer{}, nil)
	ctx := context.Background()

	t.Run("wizard not at review", func(t *testing.T) {
		_, err := orc.Confirm(ctx, ConfirmInput{
			Cart:   cartWith(t, "10.00", 1),
			Wizard: &Wizard{Stage: StageShipping},
		})
		assert.ErrorIs(t, err, ErrNotConfirmable)
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := orc.Confirm(ctx, ConfirmInput{
			Cart:   entity.NewCart(),
			Wizard: reviewWizard(entity.PaymentCash),
		})
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("fractional cents", func(t *testing.T) {
		_, err := orc.Confirm(ctx, ConfirmInput{
			Cart:   cartWith(t, "0.333", 1),
			Wizard: reviewWizard(entity.PaymentCash),
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("card without details", func(t *testing.T) {
		_, err := orc.Confirm(ctx, ConfirmInput{
			Cart:   cartWith(t, "10.00", 1),
			Wizard: reviewWizard(entity.PaymentCard),
		})
		assert.ErrorIs(t, err, ErrCardRequired)
	})
}

func TestConfirmBackendFailureLeavesNoReceipt(t *testing.T) {
	gw := &mockGateway{invoiceErr: errors.New("backend: 500")}
	orc := NewOrchestrator(gw, &mockConfirmer{}, nil)

	receipt, err := orc.Confirm(context.Background(), ConfirmInput{
		CartID: "cart-1",
		Cart:   cartWith(t, "10.00", 1),
		Wizard: reviewWizard(entity.PaymentCash),
	})
	require.Error(t, err)
	assert.Nil(t, receipt)
}

func TestAmountCents(t *testing.T) {
	cents, err := AmountCents(decimal.RequireFromString("12.34"))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cents)

	_, err = AmountCents(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = AmountCents(decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = AmountCents(decimal.RequireFromString("1.005"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// --- mocks ---

type mockGateway struct {
	intent        *entity.PaymentIntent
	intentErr     error
	invoiceErr    error
	intentCalls   int
	lastIntentReq PaymentIntentRequest
	invoices      []entity.InvoiceDraft
}

func (m *mockGateway) CreatePaymentIntent(_ context.Context, req PaymentIntentRequest) (*entity.PaymentIntent, error) {
	m.intentCalls++
	m.lastIntentReq = req
	if m.intentErr != nil {
		return nil, m.intentErr
	}
	return m.intent, nil
}

func (m *mockGateway) CreateInvoice(_ context.Context, draft entity.InvoiceDraft) error {
	if m.invoiceErr != nil {
		return m.invoiceErr
	}
	m.invoices = append(m.invoices, draft)
	return nil
}

type mockConfirmer struct {
	result          *entity.PaymentResult
	err             error
	calls           int
	lastSecret      string
	lastBillingName string
}

func (m *mockConfirmer) ConfirmCardPayment(_ context.Context, clientSecret string, _ entity.CardDetails, billingName string) (*entity.PaymentResult, error) {
	m.calls++
	m.lastSecret = clientSecret
	m.lastBillingName = billingName
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockJournal struct {
	entries []*journal.Entry
}

func (m *mockJournal) Save(_ context.Context, entry *journal.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockJournal) statuses() []journal.Status {
	out := make([]journal.Status, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Status
	}
	return out
}
