package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
)

// capture records the last request the fake backend saw.
type capture struct {
	method string
	path   string
	query  string
	auth   string
	body   []byte
}

func newTestClient(t *testing.T, status int, response string, cap *capture) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.method = r.Method
		cap.path = r.URL.Path
		cap.query = r.URL.RawQuery
		cap.auth = r.Header.Get("Authorization")
		cap.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api/")
}

func TestListProducts(t *testing.T) {
	var cap capture
	c := newTestClient(t, http.StatusOK,
		`[{"id":1,"name":"Aspirina","price":"12.50","stock":5,"image":{"type":"Buffer","data":[255,216]}}]`, &cap)

	products, err := c.ListProducts(context.Background(), "asp")
	require.NoError(t, err)

	assert.Equal(t, "/api/products", cap.path)
	assert.Equal(t, "search=asp", cap.query)
	assert.Empty(t, cap.auth, "catalog is unauthenticated")

	require.Len(t, products, 1)
	assert.Equal(t, "12.50", products[0].Price.StringFixed(2))
	require.NotNil(t, products[0].Image)
	assert.Equal(t, []byte{0xff, 0xd8}, products[0].Image.Data)
}

func TestLogin(t *testing.T) {
	var cap capture
	c := newTestClient(t, http.StatusOK, `{"token":"abc.def.ghi"}`, &cap)

	token, err := c.Login(context.Background(), "maria", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
	assert.Equal(t, http.MethodPost, cap.method)
	assert.Equal(t, "/api/users/login", cap.path)

	var body map[string]string
	require.NoError(t, json.Unmarshal(cap.body, &body))
	assert.Equal(t, "maria", body["username"])
}

func TestLoginWithoutToken(t *testing.T) {
	var cap capture
	c := newTestClient(t, http.StatusOK, `{}`, &cap)
	_, err := c.Login(context.Background(), "maria", "secret")
	assert.Error(t, err)
}

func TestBearerTokenFromContext(t *testing.T) {
	var cap capture
	c := newTestClient(t, http.StatusOK, `{"id":1,"name":"Seller","dpi":"1234567890123","role":"seller"}`, &cap)

	ctx := ports.ContextWithToken(context.Background(), "tok-123")
	profile, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", cap.auth)
	assert.Equal(t, "1234567890123", profile.DPI)
}

func TestCreatePaymentIntent(t *testing.T) {
	var cap capture
	c := newTestClient(t, http.StatusOK, `{"id":"pi_1","clientSecret":"pi_1_secret_x"}`, &cap)

	intent, err := c.CreatePaymentIntent(context.Background(), checkout.PaymentIntentRequest{
		AmountCents: 2500,
		ClientID:    7,
		SellerDPI:   "9999999999999",
		ClientDPI:   "1234567890123",
		Items: []entity.InvoiceItem{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("12.5")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret_x", intent.ClientSecret)
	assert.Equal(t, "/api/payments/create-payment-intent", cap.path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(cap.body, &body))
	assert.Equal(t, float64(2500), body["amount"])
	assert.Equal(t, "stripe", body["paymentMethod"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "12.50", item["unitPrice"], "unit prices travel as two-decimal strings")
}

func TestCreateInvoiceWireFormat(t *testing.T) {
	t.Run("card maps to stripe and carries the intent id", func(t *testing.T) {
		var cap capture
		c := newTestClient(t, http.StatusCreated, `{}`, &cap)

		err := c.CreateInvoice(context.Background(), entity.InvoiceDraft{
			ClientID:        7,
			SellerDPI:       "9999999999999",
			ClientDPI:       "1234567890123",
			PaymentMethod:   entity.PaymentCard,
			PaymentIntentID: "pi_1",
			Items:           []entity.InvoiceItem{{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("10")}},
		})
		require.NoError(t, err)
		assert.Equal(t, "/api/invoices/create", cap.path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(cap.body, &body))
		assert.Equal(t, "stripe", body["paymentMethod"])
		assert.Equal(t, "pi_1", body["paymentIntentId"])
	})

	t.Run("cash stays cash with no intent id", func(t *testing.T) {
		var cap capture
		c := newTestClient(t, http.StatusCreated, `{}`, &cap)

		err := c.CreateInvoice(context.Background(), entity.InvoiceDraft{
			PaymentMethod: entity.PaymentCash,
			Items:         []entity.InvoiceItem{{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("10")}},
		})
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(cap.body, &body))
		assert.Equal(t, "cash", body["paymentMethod"])
		_, hasIntent := body["paymentIntentId"]
		assert.False(t, hasIntent)
	})
}

func TestBatchFilters(t *testing.T) {
	var cap capture
	c := newTestClient(t, http.StatusOK, `[]`, &cap)
	ctx := context.Background()

	_, err := c.ListBatches(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "/api/batches", cap.path)

	_, err = c.ListBatches(ctx, "expired")
	require.NoError(t, err)
	assert.Equal(t, "/api/batches/expired", cap.path)

	_, err = c.ListBatches(ctx, "bogus")
	assert.Error(t, err)
}

func TestAuditLogsAcceptsBothShapes(t *testing.T) {
	ctx := context.Background()

	t.Run("bare array", func(t *testing.T) {
		var cap capture
		c := newTestClient(t, http.StatusOK, `[{"id":1,"userId":2,"action":"LOGIN","createdAt":"2025-03-01"}]`, &cap)
		logs, err := c.AuditLogs(ctx, entity.AuditQuery{Action: "LOGIN"})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "LOGIN", logs[0].Action)
		assert.Contains(t, cap.query, "action=LOGIN")
		assert.Contains(t, cap.query, "limit=20")
	})

	t.Run("logs envelope", func(t *testing.T) {
		var cap capture
		c := newTestClient(t, http.StatusOK, `{"logs":[{"id":1,"userId":2,"action":"DELETE"}],"total":1}`, &cap)
		logs, err := c.AuditLogs(ctx, entity.AuditQuery{Limit: 5})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "DELETE", logs[0].Action)
		assert.Contains(t, cap.query, "limit=5")
	})
}

func TestAPIErrorSurfacesBackendMessage(t *testing.T) {
	var cap capture
	c := newTestClient(t, http.StatusConflict, `{"message":"stock insuficiente"}`, &cap)

	err := c.CreateInvoice(context.Background(), entity.InvoiceDraft{PaymentMethod: entity.PaymentCash})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "stock insuficiente", apiErr.Message)
}

func TestSendProductMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Aspirina", r.FormValue("name"))
		assert.Equal(t, "12.50", r.FormValue("price"))
		assert.Equal(t, "5", r.FormValue("stock"))

		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":9,"name":"Aspirina","price":"12.50","stock":5}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	created, err := c.CreateProduct(context.Background(), entity.Product{
		Name:  "Aspirina",
		Price: decimal.RequireFromString("12.5"),
		Stock: 5,
	}, []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
}
