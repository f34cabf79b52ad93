package httpx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/infra/adapters/backend"
)

// Admin handlers proxy the management screens to the backend. The session
// middleware has already checked the capability; the bearer token travels in
// the request context.

// --- products ---

func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	product, image, ok := h.decodeProductUpsert(w, r)
	if !ok {
		return
	}
	created, err := h.backend.CreateProduct(r.Context(), product, image)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.invalidateCatalog(r)
	writeJSON(w, http.StatusCreated, mapProductToResponse(*created))
}

func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	product, image, okReq := h.decodeProductUpsert(w, r)
	if !okReq {
		return
	}
	product.ID = id
	updated, err := h.backend.UpdateProduct(r.Context(), product, image)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.invalidateCatalog(r)
	writeJSON(w, http.StatusOK, mapProductToResponse(*updated))
}

func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	if err := h.backend.DeleteProduct(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	h.invalidateCatalog(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeProductUpsert(w http.ResponseWriter, r *http.Request) (entity.Product, []byte, bool) {
	var req ProductUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return entity.Product{}, nil, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return entity.Product{}, nil, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.Sign() < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "price must be a non-negative decimal")
		return entity.Product{}, nil, false
	}

	var image []byte
	if req.ImageBase64 != "" {
		image, err = base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "image_base64 is not valid base64")
			return entity.Product{}, nil, false
		}
	}

	return entity.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		Supplier:    req.Supplier,
	}, image, true
}

// invalidateCatalog drops the cached product list after a product mutation
// so the storefront does not serve a stale window.
func (h *Handler) invalidateCatalog(r *http.Request) {
	if h.catalogCache == nil {
		return
	}
	key := h.catalogCache.GenerateKey("catalog", "all")
	if err := h.catalogCache.Delete(r.Context(), key); err != nil {
		slog.WarnContext(r.Context(), "failed to invalidate catalog cache", "error", err)
	}
}

// --- clients ---

func (h *Handler) AdminListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.backend.ListClients(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handler) AdminCreateClient(w http.ResponseWriter, r *http.Request) {
	var c entity.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	created, err := h.backend.CreateClient(r.Context(), c)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) AdminUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "clientID"))
	if !ok {
		return
	}
	var c entity.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	c.ID = id
	updated, err := h.backend.UpdateClient(r.Context(), c)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) AdminDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "clientID"))
	if !ok {
		return
	}
	if err := h.backend.DeleteClient(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- workers ---

func (h *Handler) AdminListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.backend.ListWorkers(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

func (h *Handler) AdminCreateWorker(w http.ResponseWriter, r *http.Request) {
	var wk entity.Worker
	if err := json.NewDecoder(r.Body).Decode(&wk); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	created, err := h.backend.CreateWorker(r.Context(), wk)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) AdminUpdateWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "workerID"))
	if !ok {
		return
	}
	var wk entity.Worker
	if err := json.NewDecoder(r.Body).Decode(&wk); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	wk.ID = id
	updated, err := h.backend.UpdateWorker(r.Context(), wk)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) AdminDeleteWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "workerID"))
	if !ok {
		return
	}
	if err := h.backend.DeleteWorker(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- users ---

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.backend.ListUsers(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) AdminRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}
	if _, err := entity.ParseRole(req.Role); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	created, err := h.backend.RegisterUser(r.Context(), entity.UserAccount{
		Username: req.Username,
		Role:     req.Role,
		UserType: req.UserType,
		DPI:      req.DPI,
	}, req.Password)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "userID"))
	if !ok {
		return
	}
	if err := h.backend.DeleteUser(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- suppliers ---

// AdminListSuppliers aggregates the product list by supplier. The backend
// has no supplier resource; this view is derived entirely from products.
func (h *Handler) AdminListSuppliers(w http.ResponseWriter, r *http.Request) {
	products, err := h.loadCatalog(r)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity.SupplierSummaries(products))
}

// --- read-only listings ---

func (h *Handler) AdminListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.backend.ListBatches(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func (h *Handler) AdminListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.backend.ListInvoices(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *Handler) AdminListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.backend.ListMovements(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

func (h *Handler) AdminAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := entity.AuditQuery{
		Action: r.URL.Query().Get("action"),
		UserID: r.URL.Query().Get("userId"),
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.backend.AuditLogs(r.Context(), q)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *Handler) AdminStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backend.DashboardStatistics(r.Context(),
		r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeBackendError surfaces a 4xx from the backend with its message and
// hides everything else behind a generic 502.
func (h *Handler) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		writeError(w, apiErr.Status, "backend_rejected", apiErr.Message)
		return
	}
	slog.ErrorContext(r.Context(), "backend call failed", "error", err)
	writeError(w, http.StatusBadGateway, "backend_unavailable", "")
}
