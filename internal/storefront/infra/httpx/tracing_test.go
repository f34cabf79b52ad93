package httpx

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// With a real tracer provider installed, every request gets a server span
// and the checkout log rows written during confirmation carry its ids.
func TestCheckoutLogRowsCarryTraceIDs(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	e := newEnv(t)
	sessionID := e.login(t)
	cartID := e.newCart(t)
	require.Equal(t, http.StatusOK, e.addItem(t, cartID, 1, 1).StatusCode)
	e.walkToReview(t, cartID, entity.PaymentCash)

	resp := e.do(t, http.MethodPost, "/checkout/"+cartID+"/confirm", sessionID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	entries := e.journal.all()
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.NotEmpty(t, entry.TraceID, "entry %s/%s missing trace id", entry.Status, entry.Step)
		assert.NotEmpty(t, entry.SpanID, "entry %s/%s missing span id", entry.Status, entry.Step)
	}

	// All rows of the attempt belong to the confirm request's trace.
	for _, entry := range entries[1:] {
		assert.Equal(t, entries[0].TraceID, entry.TraceID)
	}
}
