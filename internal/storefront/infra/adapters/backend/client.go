// Package backend implements the REST client for the pharmacy backend. All
// authenticated calls take their bearer token from the request context, see
// ports.ContextWithToken.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
)

// APIError is a non-2xx backend response with its message field, when the
// backend sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: unexpected status %d", e.Status)
}

// Client talks to the pharmacy backend. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.Backend = (*Client)(nil)

// New builds a client for the given base URL (including the /api prefix).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// --- catalog ---

func (c *Client) ListProducts(ctx context.Context, search string) ([]entity.Product, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	var products []entity.Product
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// --- accounts ---

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/login", nil, body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("backend: login response carried no token")
	}
	return out.Token, nil
}

func (c *Client) Profile(ctx context.Context) (*entity.UserProfile, error) {
	var p entity.UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ClientByDPI(ctx context.Context, dpi string) (*entity.Client, error) {
	var cl entity.Client
	if err := c.do(ctx, http.MethodGet, "/clients/by-dpi/"+url.PathEscape(dpi), nil, nil, &cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

// --- checkout gateway ---

// invoiceItemWire is the backend's line item shape: unit prices travel as
// strings fixed to two decimal places.
type invoiceItemWire struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

func itemsWire(items []entity.InvoiceItem) []invoiceItemWire {
	out := make([]invoiceItemWire, len(items))
	for i, it := range items {
		out[i] = invoiceItemWire{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.WireUnitPrice(),
		}
	}
	return out
}

// wireMethod maps the domain payment method to the backend's tag, which
// predates the card/cash naming.
func wireMethod(m entity.PaymentMethod) string {
	if m == entity.PaymentCard {
		return "stripe"
	}
	return string(m)
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req checkout.PaymentIntentRequest) (*entity.PaymentIntent, error) {
	body := map[string]any{
		"amount":        req.AmountCents,
		"clientId":      req.ClientID,
		"sellerDPI":     req.SellerDPI,
		"clientDPI":     req.ClientDPI,
		"paymentMethod": wireMethod(entity.PaymentCard),
		"items":         itemsWire(req.Items),
	}
	var intent entity.PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/payments/create-payment-intent", nil, body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) CreateInvoice(ctx context.Context, draft entity.InvoiceDraft) error {
	body := map[string]any{
		"clientId":      draft.ClientID,
		"sellerDPI":     draft.SellerDPI,
		"clientDPI":     draft.ClientDPI,
		"paymentMethod": wireMethod(draft.PaymentMethod),
		"items":         itemsWire(draft.Items),
	}
	if draft.PaymentIntentID != "" {
		body["paymentIntentId"] = draft.PaymentIntentID
	}
	return c.do(ctx, http.MethodPost, "/invoices/create", nil, body, nil)
}

// --- admin: products ---

func (c *Client) CreateProduct(ctx context.Context, p entity.Product, image []byte) (*entity.Product, error) {
	return c.sendProduct(ctx, http.MethodPost, "/products", p, image)
}

func (c *Client) UpdateProduct(ctx context.Context, p entity.Product, image []byte) (*entity.Product, error) {
	return c.sendProduct(ctx, http.MethodPut, fmt.Sprintf("/products/%d", p.ID), p, image)
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil, nil)
}

// sendProduct writes the product as multipart form data, the encoding the
// backend expects for the optional image file.
func (c *Client) sendProduct(ctx context.Context, method, path string, p entity.Product, image []byte) (*entity.Product, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.StringFixed(2),
		"stock":       strconv.Itoa(p.Stock),
		"supplier":    p.Supplier,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("backend: write form field %s: %w", k, err)
		}
	}
	if len(image) > 0 {
		fw, err := mw.CreateFormFile("image", "image.jpg")
		if err != nil {
			return nil, fmt.Errorf("backend: create image part: %w", err)
		}
		if _, err := fw.Write(image); err != nil {
			return nil, fmt.Errorf("backend: write image part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("backend: finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(ctx, req)

	var out entity.Product
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- admin: clients ---

func (c *Client) ListClients(ctx context.Context) ([]entity.Client, error) {
	var out []entity.Client
	err := c.do(ctx, http.MethodGet, "/clients", nil, nil, &out)
	return out, err
}

func (c *Client) CreateClient(ctx context.Context, cl entity.Client) (*entity.Client, error) {
	var out entity.Client
	if err := c.do(ctx, http.MethodPost, "/clients", nil, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateClient(ctx context.Context, cl entity.Client) (*entity.Client, error) {
	var out entity.Client
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/clients/%d", cl.ID), nil, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/clients/%d", id), nil, nil, nil)
}

// --- admin: workers ---

func (c *Client) ListWorkers(ctx context.Context) ([]entity.Worker, error) {
	var out []entity.Worker
	err := c.do(ctx, http.MethodGet, "/workers", nil, nil, &out)
	return out, err
}

func (c *Client) CreateWorker(ctx context.Context, w entity.Worker) (*entity.Worker, error) {
	var out entity.Worker
	if err := c.do(ctx, http.MethodPost, "/workers", nil, w, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateWorker(ctx context.Context, w entity.Worker) (*entity.Worker, error) {
	var out entity.Worker
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/workers/%d", w.ID), nil, w, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteWorker(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/workers/%d", id), nil, nil, nil)
}

// --- admin: users ---

func (c *Client) ListUsers(ctx context.Context) ([]entity.UserAccount, error) {
	var out []entity.UserAccount
	err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

func (c *Client) RegisterUser(ctx context.Context, u entity.UserAccount, password string) (*entity.UserAccount, error) {
	body := map[string]any{
		"username": u.Username,
		"password": password,
		"role":     u.Role,
		"userType": u.UserType,
		"dpi":      u.DPI,
	}
	var out entity.UserAccount
	if err := c.do(ctx, http.MethodPost, "/users/register", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil, nil)
}

// --- admin: read-only views ---

// ListBatches accepts "" for all batches, or the "expired"/"expiring"
// filters the batches screen offers.
func (c *Client) ListBatches(ctx context.Context, filter string) ([]entity.Batch, error) {
	path := "/batches"
	switch filter {
	case "", "all":
	case "expired", "expiring":
		path += "/" + filter
	default:
		return nil, fmt.Errorf("backend: unknown batch filter %q", filter)
	}
	var out []entity.Batch
	err := c.do(ctx, http.MethodGet, path, nil, nil, &out)
	return out, err
}

func (c *Client) ListInvoices(ctx context.Context) ([]entity.Invoice, error) {
	var out []entity.Invoice
	err := c.do(ctx, http.MethodGet, "/invoices", nil, nil, &out)
	return out, err
}

func (c *Client) ListMovements(ctx context.Context, movementType string) ([]entity.InventoryMovement, error) {
	q := url.Values{}
	if movementType != "" {
		q.Set("type", movementType)
	}
	var out []entity.InventoryMovement
	err := c.do(ctx, http.MethodGet, "/inventory/movements", q, nil, &out)
	return out, err
}

func (c *Client) AuditLogs(ctx context.Context, query entity.AuditQuery) ([]entity.AuditEntry, error) {
	q := url.Values{}
	if query.Action != "" {
		q.Set("action", query.Action)
	}
	if query.UserID != "" {
		q.Set("userId", query.UserID)
	}
	if query.Page > 0 {
		q.Set("page", strconv.Itoa(query.Page))
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))

	// The backend has returned both a bare array and a paginated
	// {"logs": [...]} envelope across versions; accept either.
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/audit/logs", q, nil, &raw); err != nil {
		return nil, err
	}
	var entries []entity.AuditEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}
	var envelope struct {
		Logs []entity.AuditEntry `json:"logs"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("backend: decode audit logs: %w", err)
	}
	return envelope.Logs, nil
}

func (c *Client) DashboardStatistics(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	q := url.Values{}
	if startDate != "" {
		q.Set("startDate", startDate)
	}
	if endDate != "" {
		q.Set("endDate", endDate)
	}
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/statistics/dashboard", q, nil, &out)
	return out, err
}

// --- plumbing ---

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(ctx, req)

	return c.send(req, out)
}

// authorize attaches the bearer token carried by the context, if any.
// Unauthenticated endpoints (products, login) simply have no token attached.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if token := ports.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
