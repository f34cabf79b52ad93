package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

func testCard() entity.CardDetails {
	return entity.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
}

func TestIntentIDFromSecret(t *testing.T) {
	id, err := intentIDFromSecret("pi_123_secret_456")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", id)

	_, err = intentIDFromSecret("garbage")
	assert.ErrorIs(t, err, ErrMalformedSecret)

	_, err = intentIDFromSecret("_secret_456")
	assert.ErrorIs(t, err, ErrMalformedSecret)
}

func TestConfirmCardPayment(t *testing.T) {
	t.Run("succeeded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payment_intents/pi_123/confirm", r.URL.Path)

			user, _, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "sk_test_abc", user)

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "card", r.PostFormValue("payment_method_data[type]"))
			assert.Equal(t, "4242424242424242", r.PostFormValue("payment_method_data[card][number]"))
			assert.Equal(t, "María López", r.PostFormValue("payment_method_data[billing_details][name]"))

			_, _ = w.Write([]byte(`{"id":"pi_123","status":"succeeded"}`))
		}))
		defer srv.Close()

		c := NewProcessorClient(srv.URL, "sk_test_abc")
		result, err := c.ConfirmCardPayment(context.Background(), "pi_123_secret_456", testCard(), "María López")
		require.NoError(t, err)
		assert.True(t, result.Succeeded)
		assert.Equal(t, "pi_123", result.IntentID)
	})

	t.Run("declined carries the processor message verbatim", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"error":{"message":"Your card was declined.","code":"card_declined"}}`))
		}))
		defer srv.Close()

		c := NewProcessorClient(srv.URL, "sk_test_abc")
		result, err := c.ConfirmCardPayment(context.Background(), "pi_123_secret_456", testCard(), "")
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.Equal(t, "Your card was declined.", result.Message)
	})

	t.Run("non-succeeded status without error object", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"pi_123","status":"requires_action"}`))
		}))
		defer srv.Close()

		c := NewProcessorClient(srv.URL, "sk_test_abc")
		result, err := c.ConfirmCardPayment(context.Background(), "pi_123_secret_456", testCard(), "")
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.Contains(t, result.Message, "requires_action")
	})

	t.Run("malformed secret never reaches the wire", func(t *testing.T) {
		c := NewProcessorClient("http://127.0.0.1:1", "sk_test_abc")
		_, err := c.ConfirmCardPayment(context.Background(), "bogus", testCard(), "")
		assert.ErrorIs(t, err, ErrMalformedSecret)
	})
}

func TestFakeConfirmer(t *testing.T) {
	fake := NewFakeConfirmer()

	result, err := fake.ConfirmCardPayment(context.Background(), "pi_1_secret_x", testCard(), "María")
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, "pi_1", result.IntentID)
	assert.Equal(t, []string{"pi_1_secret_x"}, fake.Confirmed())

	fake.Decline("pi_2_secret_y", "insufficient funds")
	result, err = fake.ConfirmCardPayment(context.Background(), "pi_2_secret_y", testCard(), "")
	require.NoError(t, err)
	assert.False(t, result.Succeeded)
	assert.Equal(t, "insufficient funds", result.Message)
}
