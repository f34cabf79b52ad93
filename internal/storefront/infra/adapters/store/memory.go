package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
)

// In-memory store implementations for tests and development. They serialise
// through JSON like the Redis-backed ones, so round-trip behaviour is
// identical.

type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

var _ ports.CartStore = (*MemoryCartStore)(nil)

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string][]byte)}
}

func (s *MemoryCartStore) Load(ctx context.Context, cartID string) (*entity.Cart, error) {
	s.mu.RLock()
	raw, ok := s.carts[cartID]
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	cart := entity.NewCart()
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *MemoryCartStore) Save(ctx context.Context, cartID string, c *entity.Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[cartID] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, cartID string) error {
	s.mu.Lock()
	delete(s.carts, cartID)
	s.mu.Unlock()
	return nil
}

type MemoryWizardStore struct {
	mu      sync.RWMutex
	wizards map[string][]byte
}

var _ ports.WizardStore = (*MemoryWizardStore)(nil)

func NewMemoryWizardStore() *MemoryWizardStore {
	return &MemoryWizardStore{wizards: make(map[string][]byte)}
}

func (s *MemoryWizardStore) Load(ctx context.Context, cartID string) (*checkout.Wizard, error) {
	s.mu.RLock()
	raw, ok := s.wizards[cartID]
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	var w checkout.Wizard
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *MemoryWizardStore) Save(ctx context.Context, cartID string, w *checkout.Wizard) error {
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.wizards[cartID] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryWizardStore) Delete(ctx context.Context, cartID string) error {
	s.mu.Lock()
	delete(s.wizards, cartID)
	s.mu.Unlock()
	return nil
}

type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
}

var _ ports.SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]entity.Session)}
}

func (s *MemorySessionStore) Load(ctx context.Context, sessionID string) (*entity.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &sess, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, sess *entity.Session) error {
	s.mu.Lock()
	s.sessions[sess.ID] = *sess
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}
