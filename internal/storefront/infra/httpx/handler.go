package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/pkg/cache"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
	"github.com/mifarmacia/storefront/internal/storefront/infra/httpx/middlewares"
)

// Handler serves the storefront surface: catalog, carts, the checkout
// wizard, and login sessions.
type Handler struct {
	backend      ports.Backend
	orchestrator *checkout.Orchestrator
	carts        ports.CartStore
	wizards      ports.WizardStore
	sessions     ports.SessionStore
	catalogCache cache.Cache // nil-safe: catalog fetched per request if nil
	catalogTTL   time.Duration

	// inflight is the coarse one-submission-at-a-time gate per cart. It
	// only guards this process; it is a UI-level guard, not a lock on the
	// backend.
	mu       sync.Mutex
	inflight map[string]bool
}

// NewHandler wires the storefront handler. catalogCache may be nil, in which
// case every catalog read goes to the backend.
func NewHandler(
	backend ports.Backend,
	orchestrator *checkout.Orchestrator,
	carts ports.CartStore,
	wizards ports.WizardStore,
	sessions ports.SessionStore,
	catalogCache cache.Cache,
	catalogTTL time.Duration,
) *Handler {
	return &Handler{
		backend:      backend,
		orchestrator: orchestrator,
		carts:        carts,
		wizards:      wizards,
		sessions:     sessions,
		catalogCache: catalogCache,
		catalogTTL:   catalogTTL,
		inflight:     make(map[string]bool),
	}
}

// --- session ---

// Login exchanges backend credentials for a gateway session. The token's
// role and DPI are decoded (not verified) to drive capability checks.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	token, err := h.backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "login_failed", "invalid credentials")
		return
	}

	claims, err := entity.DecodeClaims(token)
	if err != nil {
		writeError(w, http.StatusBadGateway, "bad_token", err.Error())
		return
	}

	sess := &entity.Session{
		ID:        uuid.NewString(),
		Token:     token,
		Role:      claims.Role,
		DPI:       claims.DPI,
		Username:  req.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "session_store_error", "")
		return
	}

	slog.InfoContext(r.Context(), "session created", "role", sess.Role, "username", sess.Username)
	writeJSON(w, http.StatusOK, LoginResponse{SessionID: sess.ID, Role: sess.Role, DPI: sess.DPI})
}

// Logout deletes the session, invalidating the stored token triad in one
// place.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.SessionFromContext(r.Context())
	if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "session_store_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- catalog ---

// Catalog lists products, filtered by the optional free-text search term.
// Filtering is a case-insensitive substring match computed in memory against
// the full cached list, one backend round-trip per cache window.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.loadCatalog(r)
	if err != nil {
		writeError(w, http.StatusBadGateway, "catalog_unavailable", "")
		return
	}
	filtered := entity.FilterProducts(products, r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, mapProducts(filtered))
}

func (h *Handler) loadCatalog(r *http.Request) ([]entity.Product, error) {
	ctx := r.Context()
	var key string
	if h.catalogCache != nil {
		key = h.catalogCache.GenerateKey("catalog", "all")
		if raw, err := h.catalogCache.Get(ctx, key); err == nil && raw != "" {
			var products []entity.Product
			if err := json.Unmarshal([]byte(raw), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := h.backend.ListProducts(ctx, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch catalog", "error", err)
		return nil, err
	}

	if h.catalogCache != nil {
		if b, err := json.Marshal(products); err == nil {
			_ = h.catalogCache.Set(ctx, key, string(b), h.catalogTTL)
		}
	}
	return products, nil
}

func (h *Handler) findProduct(r *http.Request, id int64) (*entity.Product, error) {
	products, err := h.loadCatalog(r)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, ports.ErrNotFound
}

// --- carts ---

func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	cartID := uuid.NewString()
	if err := h.carts.Save(r.Context(), cartID, entity.NewCart()); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_store_error", "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"cart_id": cartID})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	cart, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(cartID, cart))
}

// AddItem validates the requested quantity against the product's stock and,
// on success, writes the updated snapshot through to the store.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	cart, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}

	product, err := h.findProduct(r, req.ProductID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product_not_found", "")
			return
		}
		writeError(w, http.StatusBadGateway, "catalog_unavailable", "")
		return
	}

	if err := cart.AddItem(*product, req.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}
	if !h.saveCart(w, r, cartID, cart) {
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(cartID, cart))
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	productID, ok := parseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	cart, okCart := h.loadCart(w, r, cartID)
	if !okCart {
		return
	}
	if err := cart.UpdateQuantity(productID, req.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}
	if !h.saveCart(w, r, cartID, cart) {
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(cartID, cart))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	productID, ok := parseID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	cart, okCart := h.loadCart(w, r, cartID)
	if !okCart {
		return
	}
	cart.RemoveItem(productID)
	if !h.saveCart(w, r, cartID, cart) {
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(cartID, cart))
}

// ClearCart empties the cart, evicts its persisted snapshot, and discards
// any in-progress checkout.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	if err := h.carts.Delete(r.Context(), cartID); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_store_error", "")
		return
	}
	_ = h.wizards.Delete(r.Context(), cartID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request, cartID string) (*entity.Cart, bool) {
	cart, err := h.carts.Load(r.Context(), cartID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cart_not_found", "")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "cart_store_error", "")
		return nil, false
	}
	return cart, true
}

func (h *Handler) saveCart(w http.ResponseWriter, r *http.Request, cartID string, cart *entity.Cart) bool {
	if err := h.carts.Save(r.Context(), cartID, cart); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_store_error", "")
		return false
	}
	return true
}

// writeCartError maps cart domain errors to HTTP. Stock rejections carry the
// user-facing message with the available stock.
func (h *Handler) writeCartError(w http.ResponseWriter, err error) {
	var stockErr *entity.StockExceededError
	switch {
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, "stock_exceeded", stockErr.Error())
	case errors.Is(err, entity.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, entity.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "line_not_found", "")
	default:
		writeError(w, http.StatusInternalServerError, "cart_error", "")
	}
}
