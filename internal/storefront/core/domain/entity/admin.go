package entity

import "github.com/shopspring/decimal"

// Types in this file mirror backend resources surfaced by the admin views.
// They are read and written through the REST client; the backend owns their
// lifecycle.

// Client is a registered buyer. Orders are attached to a client record via
// its DPI.
type Client struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	DPI       string `json:"dpi"`
	BirthDate string `json:"birthDate,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// UserProfile is the authenticated account as /users/profile returns it.
// The seller DPI on an invoice comes from here.
type UserProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	DPI  string `json:"dpi"`
	Role string `json:"role"`
}

// UserAccount is a login account managed from the users screen.
type UserAccount struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	UserType string `json:"userType,omitempty"`
	DPI      string `json:"dpi"`
}

// Worker is an employee record.
type Worker struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	DPI       string `json:"dpi"`
	BirthDate string `json:"birthDate,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Role      string `json:"role,omitempty"`
	UserID    *int64 `json:"userId,omitempty"`
}

// Batch is a dated inventory lot of a product, tracked for expiration.
// Read-only from this layer.
type Batch struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"productId"`
	BatchNumber       string          `json:"batchNumber"`
	ManufacturingDate string          `json:"manufacturingDate"`
	ExpirationDate    string          `json:"expirationDate"`
	Quantity          int             `json:"quantity"`
	PurchasePrice     decimal.Decimal `json:"purchasePrice"`
	SalePrice         decimal.Decimal `json:"salePrice"`
	Supplier          string          `json:"supplier,omitempty"`
	Location          string          `json:"location,omitempty"`
}

// InventoryMovement is one stock transition (entry, exit, adjustment).
type InventoryMovement struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	Type      string `json:"type"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// AuditEntry is one row of the backend audit trail.
type AuditEntry struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Action    string `json:"action"`
	Entity    string `json:"entity,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// AuditQuery filters the audit listing. Zero values mean "no filter".
type AuditQuery struct {
	Action string
	UserID string
	Page   int
	Limit  int
}

// Invoice is a finalised sale as the backend returns it in listings.
type Invoice struct {
	ID            int64           `json:"id"`
	ClientID      int64           `json:"clientId"`
	ClientDPI     string          `json:"clientDPI"`
	SellerDPI     string          `json:"sellerDPI"`
	PaymentMethod string          `json:"paymentMethod"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     string          `json:"createdAt"`
}
