// Package store implements the durable snapshot stores (carts, checkout
// wizards, sessions) on top of the cache port, plus in-memory variants for
// tests and local development.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/pkg/cache"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
)

// CartStore persists cart snapshots as JSON under
// "<service>:cart:<cartID>". Every Save rewrites the full snapshot; this is
// a write-through cache with no eviction beyond the TTL.
type CartStore struct {
	cache cache.Cache
	ttl   time.Duration
}

var _ ports.CartStore = (*CartStore)(nil)

func NewCartStore(c cache.Cache, ttl time.Duration) *CartStore {
	return &CartStore{cache: c, ttl: ttl}
}

func (s *CartStore) Load(ctx context.Context, cartID string) (*entity.Cart, error) {
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey("cart", cartID))
	if err != nil {
		return nil, fmt.Errorf("cart store: load %q: %w", cartID, err)
	}
	if raw == "" {
		return nil, ports.ErrNotFound
	}
	cart := entity.NewCart()
	if err := json.Unmarshal([]byte(raw), cart); err != nil {
		return nil, fmt.Errorf("cart store: decode %q: %w", cartID, err)
	}
	return cart, nil
}

func (s *CartStore) Save(ctx context.Context, cartID string, c *entity.Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart store: encode %q: %w", cartID, err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("cart", cartID), string(b), s.ttl); err != nil {
		return fmt.Errorf("cart store: save %q: %w", cartID, err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, cartID string) error {
	if err := s.cache.Delete(ctx, s.cache.GenerateKey("cart", cartID)); err != nil {
		return fmt.Errorf("cart store: delete %q: %w", cartID, err)
	}
	return nil
}

// WizardStore persists checkout wizard state under
// "<service>:wizard:<cartID>".
type WizardStore struct {
	cache cache.Cache
	ttl   time.Duration
}

var _ ports.WizardStore = (*WizardStore)(nil)

func NewWizardStore(c cache.Cache, ttl time.Duration) *WizardStore {
	return &WizardStore{cache: c, ttl: ttl}
}

func (s *WizardStore) Load(ctx context.Context, cartID string) (*checkout.Wizard, error) {
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey("wizard", cartID))
	if err != nil {
		return nil, fmt.Errorf("wizard store: load %q: %w", cartID, err)
	}
	if raw == "" {
		return nil, ports.ErrNotFound
	}
	var w checkout.Wizard
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("wizard store: decode %q: %w", cartID, err)
	}
	return &w, nil
}

func (s *WizardStore) Save(ctx context.Context, cartID string, w *checkout.Wizard) error {
	b, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("wizard store: encode %q: %w", cartID, err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("wizard", cartID), string(b), s.ttl); err != nil {
		return fmt.Errorf("wizard store: save %q: %w", cartID, err)
	}
	return nil
}

func (s *WizardStore) Delete(ctx context.Context, cartID string) error {
	if err := s.cache.Delete(ctx, s.cache.GenerateKey("wizard", cartID)); err != nil {
		return fmt.Errorf("wizard store: delete %q: %w", cartID, err)
	}
	return nil
}

// SessionStore persists session context objects under
// "<service>:session:<sessionID>".
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (*entity.Session, error) {
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey("session", sessionID))
	if err != nil {
		return nil, fmt.Errorf("session store: load: %w", err)
	}
	if raw == "" {
		return nil, ports.ErrNotFound
	}
	var sess entity.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("session store: decode: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *entity.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session store: encode: %w", err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("session", sess.ID), string(b), s.ttl); err != nil {
		return fmt.Errorf("session store: save: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, s.cache.GenerateKey("session", sessionID)); err != nil {
		return fmt.Errorf("session store: delete: %w", err)
	}
	return nil
}
