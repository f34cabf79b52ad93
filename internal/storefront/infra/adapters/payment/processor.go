// Package payment wraps the card payment processor. The only operation this
// layer needs is the confirmCardPayment-shaped exchange: a server-issued
// client secret plus card details in, a success or an error message out.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// ErrMalformedSecret is returned when the client secret does not embed a
// payment intent id.
var ErrMalformedSecret = errors.New("payment: malformed client secret")

// ProcessorClient confirms charges against a Stripe-shaped REST processor.
// It performs no retries: a declined or errored charge is terminal for that
// submission attempt.
type ProcessorClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

var _ checkout.CardConfirmer = (*ProcessorClient)(nil)

func NewProcessorClient(baseURL, secretKey string) *ProcessorClient {
	return &ProcessorClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// intentIDFromSecret extracts the payment intent id embedded in a client
// secret of the form "pi_123_secret_456".
func intentIDFromSecret(clientSecret string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret")
	if !found || id == "" {
		return "", ErrMalformedSecret
	}
	return id, nil
}

// ConfirmCardPayment confirms the charge the client secret authorises. A
// processor-declined charge comes back as Succeeded=false with the
// processor's message verbatim; transport failures are returned as errors.
func (c *ProcessorClient) ConfirmCardPayment(ctx context.Context, clientSecret string, card entity.CardDetails, billingName string) (*entity.PaymentResult, error) {
	intentID, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("client_secret", clientSecret)
	form.Set("payment_method_data[type]", "card")
	form.Set("payment_method_data[card][number]", card.Number)
	form.Set("payment_method_data[card][exp_month]", strconv.Itoa(card.ExpMonth))
	form.Set("payment_method_data[card][exp_year]", strconv.Itoa(card.ExpYear))
	form.Set("payment_method_data[card][cvc]", card.CVC)
	if billingName != "" {
		form.Set("payment_method_data[billing_details][name]", billingName)
	}

	endpoint := fmt.Sprintf("%s/v1/payment_intents/%s/confirm", c.baseURL, url.PathEscape(intentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payment: build confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment: confirm %s: %w", intentID, err)
	}
	defer resp.Body.Close()

	var body struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("payment: decode confirm response: %w", err)
	}

	if body.Error != nil {
		return &entity.PaymentResult{Succeeded: false, IntentID: intentID, Message: body.Error.Message}, nil
	}
	if body.Status != "succeeded" {
		return &entity.PaymentResult{
			Succeeded: false,
			IntentID:  intentID,
			Message:   fmt.Sprintf("payment not completed: status %s", body.Status),
		}, nil
	}

	id := body.ID
	if id == "" {
		id = intentID
	}
	return &entity.PaymentResult{Succeeded: true, IntentID: id}, nil
}
