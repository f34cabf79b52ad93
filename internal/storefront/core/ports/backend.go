package ports

import (
	"context"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// Catalog is the read-only product surface consumed by the storefront.
type Catalog interface {
	// ListProducts fetches the full product list, optionally filtered
	// server-side by free-text search.
	ListProducts(ctx context.Context, search string) ([]entity.Product, error)
}

// Accounts covers login, the authenticated profile, and the client lookup
// used to attach an order to a client record.
type Accounts interface {
	Login(ctx context.Context, username, password string) (token string, err error)
	Profile(ctx context.Context) (*entity.UserProfile, error)
	ClientByDPI(ctx context.Context, dpi string) (*entity.Client, error)
}

// Admin is the management surface proxied to the backend for the dashboard
// screens. Every call is authenticated; the token travels in the context,
// see ContextWithToken.
type Admin interface {
	CreateProduct(ctx context.Context, p entity.Product, image []byte) (*entity.Product, error)
	UpdateProduct(ctx context.Context, p entity.Product, image []byte) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListClients(ctx context.Context) ([]entity.Client, error)
	CreateClient(ctx context.Context, c entity.Client) (*entity.Client, error)
	UpdateClient(ctx context.Context, c entity.Client) (*entity.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	ListWorkers(ctx context.Context) ([]entity.Worker, error)
	CreateWorker(ctx context.Context, w entity.Worker) (*entity.Worker, error)
	UpdateWorker(ctx context.Context, w entity.Worker) (*entity.Worker, error)
	DeleteWorker(ctx context.Context, id int64) error

	ListUsers(ctx context.Context) ([]entity.UserAccount, error)
	RegisterUser(ctx context.Context, u entity.UserAccount, password string) (*entity.UserAccount, error)
	DeleteUser(ctx context.Context, id int64) error

	ListBatches(ctx context.Context, filter string) ([]entity.Batch, error)
	ListInvoices(ctx context.Context) ([]entity.Invoice, error)
	ListMovements(ctx context.Context, movementType string) ([]entity.InventoryMovement, error)
	AuditLogs(ctx context.Context, q entity.AuditQuery) ([]entity.AuditEntry, error)
	DashboardStatistics(ctx context.Context, startDate, endDate string) (map[string]any, error)
}

// Backend is the full REST client surface. The single HTTP adapter
// implements all of it plus checkout.Gateway; consumers depend on the
// narrow slices above.
type Backend interface {
	Catalog
	Accounts
	Admin
	checkout.Gateway
}
