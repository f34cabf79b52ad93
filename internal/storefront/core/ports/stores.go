package ports

import (
	"context"
	"errors"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

// ErrNotFound is returned by the stores for ids with no stored snapshot.
var ErrNotFound = errors.New("store: not found")

// CartStore is the durable snapshot store behind the cart: every mutation is
// written through so a later request rehydrates the same state. There is no
// eviction policy beyond the TTL; the cart is bounded in practice by the
// catalog size.
type CartStore interface {
	Load(ctx context.Context, cartID string) (*entity.Cart, error)
	Save(ctx context.Context, cartID string, c *entity.Cart) error
	Delete(ctx context.Context, cartID string) error
}

// WizardStore persists checkout wizard state between requests, keyed by the
// cart being checked out.
type WizardStore interface {
	Load(ctx context.Context, cartID string) (*checkout.Wizard, error)
	Save(ctx context.Context, cartID string, w *checkout.Wizard) error
	Delete(ctx context.Context, cartID string) error
}

// SessionStore holds the session context objects issued at login. Deleting a
// session is the single logout/invalidation point.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*entity.Session, error)
	Save(ctx context.Context, s *entity.Session) error
	Delete(ctx context.Context, sessionID string) error
}
