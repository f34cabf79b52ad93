package payment

import (
	"context"
	"sync"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// Ensure FakeConfirmer implements the port at compile time.
var _ checkout.CardConfirmer = (*FakeConfirmer)(nil)

// FakeConfirmer is an in-memory CardConfirmer for local development and
// tests. Do NOT use in production: it confirms every charge except those
// whose client secret was registered with Decline.
type FakeConfirmer struct {
	mu        sync.Mutex
	declined  map[string]string
	confirmed []string
}

func NewFakeConfirmer() *FakeConfirmer {
	return &FakeConfirmer{declined: make(map[string]string)}
}

// Decline makes the next confirmation of clientSecret fail with message,
// standing in for a card the processor rejects.
func (f *FakeConfirmer) Decline(clientSecret, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declined[clientSecret] = message
}

// Confirmed returns the client secrets confirmed so far, in order.
func (f *FakeConfirmer) Confirmed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.confirmed))
	copy(out, f.confirmed)
	return out
}

func (f *FakeConfirmer) ConfirmCardPayment(ctx context.Context, clientSecret string, card entity.CardDetails, billingName string) (*entity.PaymentResult, error) {
	intentID, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := f.declined[clientSecret]; ok {
		return &entity.PaymentResult{Succeeded: false, IntentID: intentID, Message: msg}, nil
	}

	f.confirmed = append(f.confirmed, clientSecret)
	return &entity.PaymentResult{Succeeded: true, IntentID: intentID}, nil
}
