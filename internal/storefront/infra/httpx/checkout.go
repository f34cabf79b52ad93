package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
	"github.com/mifarmacia/storefront/internal/storefront/infra/httpx/middlewares"
)

// finalConsumerName is the billing name used when no client record is
// attached to the sale.
const finalConsumerName = "Consumidor Final"

// StartCheckout opens a wizard for the cart at the first stage. Starting
// over an existing wizard resets it.
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	cart, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	if cart.Len() == 0 {
		writeError(w, http.StatusConflict, "empty_cart", "cannot check out an empty cart")
		return
	}

	wiz := checkout.NewWizard()
	if !h.saveWizard(w, r, cartID, wiz) {
		return
	}
	writeJSON(w, http.StatusCreated, mapWizardToResponse(cartID, wiz, cart))
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	cart, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	wiz, ok := h.loadWizard(w, r, cartID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapWizardToResponse(cartID, wiz, cart))
}

// SubmitCustomer records the buyer identification and advances past the
// first stage. A non-final-consumer buyer needs a username and a
// 13-character DPI.
func (h *Handler) SubmitCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.submitStep(w, r, checkout.StageCustomer, func(wiz *checkout.Wizard) {
		wiz.Customer = entity.CustomerInfo{
			Username:      req.Username,
			Password:      req.Password,
			DPI:           req.DPI,
			FinalConsumer: req.FinalConsumer,
		}
	})
}

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.submitStep(w, r, checkout.StagePayment, func(wiz *checkout.Wizard) {
		wiz.PaymentMethod = req.Method
	})
}

func (h *Handler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	var req ShippingStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.submitStep(w, r, checkout.StageShipping, func(wiz *checkout.Wizard) {
		wiz.ShippingMethod = req.Method
		wiz.Address = req.Address
	})
}

// submitStep applies one stage's input and advances the wizard. Submitting a
// stage the wizard is not at is rejected, which keeps the flow linear even
// with replayed requests.
func (h *Handler) submitStep(w http.ResponseWriter, r *http.Request, stage checkout.Stage, apply func(*checkout.Wizard)) {
	cartID := chi.URLParam(r, "cartID")
	cart, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	wiz, ok := h.loadWizard(w, r, cartID)
	if !ok {
		return
	}
	if wiz.Stage != stage {
		writeError(w, http.StatusConflict, "wrong_stage", "wizard is at stage "+string(wiz.Stage))
		return
	}

	apply(wiz)
	if err := wiz.Advance(); err != nil {
		var vErr *checkout.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusUnprocessableEntity, "validation_failed", vErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "wizard_error", "")
		return
	}
	if !h.saveWizard(w, r, cartID, wiz) {
		return
	}
	writeJSON(w, http.StatusOK, mapWizardToResponse(cartID, wiz, cart))
}

// StepBack moves the wizard one stage backward. Previously entered values are
// kept so re-advancing does not require re-typing.
func (h *Handler) StepBack(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	cart, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	wiz, ok := h.loadWizard(w, r, cartID)
	if !ok {
		return
	}
	wiz.Back()
	if !h.saveWizard(w, r, cartID, wiz) {
		return
	}
	writeJSON(w, http.StatusOK, mapWizardToResponse(cartID, wiz, cart))
}

// ConfirmCheckout runs the terminal action: payment (when paying by card)
// then invoice creation. At most one confirmation per cart runs at a time;
// concurrent submissions are rejected rather than queued. On success the cart
// and wizard snapshots are evicted.
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")

	h.mu.Lock()
	if h.inflight[cartID] {
		h.mu.Unlock()
		writeError(w, http.StatusConflict, "confirmation_in_progress", "a confirmation for this cart is already running")
		return
	}
	h.inflight[cartID] = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.inflight, cartID)
		h.mu.Unlock()
	}()

	var req ConfirmRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}

	cart, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	wiz, ok := h.loadWizard(w, r, cartID)
	if !ok {
		return
	}

	sess := middlewares.SessionFromContext(r.Context())
	sellerDPI := h.resolveSellerDPI(r, sess)

	clientID, clientName, err := h.resolveClient(r, wiz)
	if err != nil {
		writeError(w, http.StatusBadGateway, "client_lookup_failed", "could not resolve the client record")
		return
	}

	receipt, err := h.orchestrator.Confirm(r.Context(), checkout.ConfirmInput{
		CartID:     cartID,
		Cart:       cart,
		Wizard:     wiz,
		ClientID:   clientID,
		ClientName: clientName,
		SellerDPI:  sellerDPI,
		Card:       req.Card,
	})
	if err != nil {
		h.writeConfirmError(w, r, err)
		return
	}

	// The cart is consumed only after the invoice exists; a failed attempt
	// above leaves both snapshots intact for resubmission.
	if err := h.carts.Delete(r.Context(), cartID); err != nil {
		slog.WarnContext(r.Context(), "failed to evict cart after confirmation", "cart_id", cartID, "error", err)
	}
	if err := h.wizards.Delete(r.Context(), cartID); err != nil {
		slog.WarnContext(r.Context(), "failed to evict wizard after confirmation", "cart_id", cartID, "error", err)
	}

	writeJSON(w, http.StatusCreated, mapReceiptToResponse(receipt))
}

// resolveSellerDPI reads the seller's DPI from the session claims, falling
// back to the backend profile when the token carried none.
func (h *Handler) resolveSellerDPI(r *http.Request, sess *entity.Session) string {
	if sess == nil {
		return ""
	}
	if sess.DPI != "" {
		return sess.DPI
	}
	profile, err := h.backend.Profile(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "failed to fetch seller profile", "error", err)
		return ""
	}
	return profile.DPI
}

// resolveClient attaches the sale to a client record by DPI. A final
// consumer sale carries no record and bills under the generic name.
func (h *Handler) resolveClient(r *http.Request, wiz *checkout.Wizard) (int64, string, error) {
	if wiz.Customer.FinalConsumer {
		return 0, finalConsumerName, nil
	}
	client, err := h.backend.ClientByDPI(r.Context(), wiz.Customer.DPI)
	if err != nil {
		return 0, "", err
	}
	return client.ID, client.Name, nil
}

func (h *Handler) writeConfirmError(w http.ResponseWriter, r *http.Request, err error) {
	var declined *checkout.DeclinedError
	var vErr *checkout.ValidationError
	switch {
	case errors.As(err, &declined):
		writeError(w, http.StatusPaymentRequired, "payment_declined", declined.Message)
	case errors.As(err, &vErr):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", vErr.Message)
	case errors.Is(err, checkout.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
	case errors.Is(err, checkout.ErrCardRequired):
		writeError(w, http.StatusUnprocessableEntity, "card_required", err.Error())
	case errors.Is(err, checkout.ErrNotConfirmable), errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusConflict, "not_confirmable", err.Error())
	default:
		slog.ErrorContext(r.Context(), "checkout confirmation failed", "error", err)
		writeError(w, http.StatusBadGateway, "checkout_failed", "the order could not be completed, please try again")
	}
}

func (h *Handler) loadWizard(w http.ResponseWriter, r *http.Request, cartID string) (*checkout.Wizard, bool) {
	wiz, err := h.wizards.Load(r.Context(), cartID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "checkout_not_found", "no checkout in progress for this cart")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "wizard_store_error", "")
		return nil, false
	}
	return wiz, true
}

func (h *Handler) saveWizard(w http.ResponseWriter, r *http.Request, cartID string, wiz *checkout.Wizard) bool {
	if err := h.wizards.Save(r.Context(), cartID, wiz); err != nil {
		writeError(w, http.StatusInternalServerError, "wizard_store_error", "")
		return false
	}
	return true
}
