package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// --- session ---

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	SessionID string      `json:"session_id"`
	Role      entity.Role `json:"role"`
	DPI       string      `json:"dpi"`
}

// --- catalog ---

type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	Supplier    string `json:"supplier,omitempty"`
	Image       string `json:"image"`
}

func mapProductToResponse(p entity.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Supplier:    p.Supplier,
		Image:       p.ImageURI(),
	}
}

func mapProducts(products []entity.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProductToResponse(p)
	}
	return out
}

// --- cart ---

type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartLineResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Stock     int    `json:"stock"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	CartID     string             `json:"cart_id"`
	Lines      []CartLineResponse `json:"lines"`
	Total      string             `json:"total"`
	TotalItems int                `json:"total_items"`
}

func mapCartToResponse(cartID string, c *entity.Cart) CartResponse {
	lines := c.Lines()
	out := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		out[i] = CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price.StringFixed(2),
			Stock:     l.Stock,
			Image:     l.Image,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().StringFixed(2),
		}
	}
	return CartResponse{
		CartID:     cartID,
		Lines:      out,
		Total:      c.Total().StringFixed(2),
		TotalItems: c.TotalItems(),
	}
}

// --- checkout ---

type CustomerStepRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	DPI           string `json:"dpi"`
	FinalConsumer bool   `json:"final_consumer"`
}

type PaymentStepRequest struct {
	Method entity.PaymentMethod `json:"method"`
}

type ShippingStepRequest struct {
	Method  checkout.ShippingMethod `json:"method"`
	Address string                  `json:"address"`
}

type ConfirmRequest struct {
	Card *entity.CardDetails `json:"card,omitempty"`
}

type WizardResponse struct {
	CartID         string                  `json:"cart_id"`
	Stage          checkout.Stage          `json:"stage"`
	PaymentMethod  entity.PaymentMethod    `json:"payment_method,omitempty"`
	ShippingMethod checkout.ShippingMethod `json:"shipping_method,omitempty"`
	Address        string                  `json:"address,omitempty"`
	FinalConsumer  bool                    `json:"final_consumer"`
	Total          string                  `json:"total"`
}

func mapWizardToResponse(cartID string, w *checkout.Wizard, c *entity.Cart) WizardResponse {
	return WizardResponse{
		CartID:         cartID,
		Stage:          w.Stage,
		PaymentMethod:  w.PaymentMethod,
		ShippingMethod: w.ShippingMethod,
		Address:        w.Address,
		FinalConsumer:  w.Customer.FinalConsumer,
		Total:          c.Total().StringFixed(2),
	}
}

type ReceiptResponse struct {
	AttemptID       string `json:"attempt_id"`
	Total           string `json:"total"`
	AmountCents     int64  `json:"amount_cents"`
	PaymentMethod   string `json:"payment_method"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

func mapReceiptToResponse(r *checkout.Receipt) ReceiptResponse {
	return ReceiptResponse{
		AttemptID:       r.AttemptID,
		Total:           r.Total.StringFixed(2),
		AmountCents:     r.AmountCents,
		PaymentMethod:   string(r.PaymentMethod),
		PaymentIntentID: r.PaymentIntentID,
	}
}

// --- admin ---

type ProductUpsertRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	Supplier    string `json:"supplier"`
	// ImageBase64 is the optional product image, base64-encoded; it is
	// re-encoded as a multipart file for the backend.
	ImageBase64 string `json:"image_base64,omitempty"`
}

type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	UserType string `json:"userType,omitempty"`
	DPI      string `json:"dpi"`
}

// --- envelope ---

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
