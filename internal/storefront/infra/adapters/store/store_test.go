package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
)

// fakeCache is an in-memory cache.Cache that records the keys it was given,
// so the tests can assert the namespacing scheme.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	keys []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

func sampleCart(t *testing.T) *entity.Cart {
	t.Helper()
	c := entity.NewCart()
	require.NoError(t, c.AddItem(entity.Product{
		ID: 1, Name: "Aspirina", Price: decimal.RequireFromString("12.50"), Stock: 5,
	}, 2))
	return c
}

func TestCartStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	s := NewCartStore(fc, time.Minute)

	require.NoError(t, s.Save(ctx, "c1", sampleCart(t)))
	assert.Equal(t, []string{"test:cart:c1"}, fc.keys)

	loaded, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "25.00", loaded.Total().StringFixed(2))

	require.NoError(t, s.Delete(ctx, "c1"))
	_, err = s.Load(ctx, "c1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestWizardStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewWizardStore(newFakeCache(), time.Minute)

	w := &checkout.Wizard{
		Stage:          checkout.StageShipping,
		Customer:       entity.CustomerInfo{Username: "maria", DPI: "1234567890123"},
		PaymentMethod:  entity.PaymentCard,
		ShippingMethod: checkout.ShippingDelivery,
		Address:        "zona 1",
	}
	require.NoError(t, s.Save(ctx, "c1", w))

	loaded, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StageShipping, loaded.Stage)
	assert.Equal(t, entity.PaymentCard, loaded.PaymentMethod)
	assert.Equal(t, "zona 1", loaded.Address)

	_, err = s.Load(ctx, "other")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(newFakeCache(), time.Minute)

	sess := &entity.Session{ID: "s1", Token: "tok", Role: entity.RoleAdmin, DPI: "1234567890123", Username: "admin"}
	require.NoError(t, s.Save(ctx, sess))

	loaded, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, loaded.Role)
	assert.True(t, loaded.Can(entity.CapManageUsers))

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err = s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMemoryStoresMatchRedisBehaviour(t *testing.T) {
	ctx := context.Background()

	t.Run("cart", func(t *testing.T) {
		s := NewMemoryCartStore()
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, ports.ErrNotFound)

		cart := sampleCart(t)
		require.NoError(t, s.Save(ctx, "c1", cart))

		// Mutating the original after Save must not leak into the snapshot.
		require.NoError(t, cart.UpdateQuantity(1, 5))

		loaded, err := s.Load(ctx, "c1")
		require.NoError(t, err)
		line, _ := loaded.Line(1)
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("wizard", func(t *testing.T) {
		s := NewMemoryWizardStore()
		require.NoError(t, s.Save(ctx, "c1", checkout.NewWizard()))
		loaded, err := s.Load(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, checkout.StageCustomer, loaded.Stage)
	})

	t.Run("session", func(t *testing.T) {
		s := NewMemorySessionStore()
		require.NoError(t, s.Save(ctx, &entity.Session{ID: "s1", Role: entity.RoleSeller}))
		require.NoError(t, s.Delete(ctx, "s1"))
		_, err := s.Load(ctx, "s1")
		assert.ErrorIs(t, err, ports.ErrNotFound)
	})
}
