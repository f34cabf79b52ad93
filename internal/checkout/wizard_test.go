package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
)

func TestWizardHappyPath(t *testing.T) {
	w := NewWizard()
	assert.Equal(t, StageCustomer, w.Stage)
	assert.False(t, w.CanConfirm())

	w.Customer = entity.CustomerInfo{FinalConsumer: true}
	require.NoError(t, w.Advance())
	assert.Equal(t, StagePayment, w.Stage)

	w.PaymentMethod = entity.PaymentCash
	require.NoError(t, w.Advance())
	assert.Equal(t, StageShipping, w.Stage)

	w.ShippingMethod = ShippingPickup
	require.NoError(t, w.Advance())
	assert.Equal(t, StageReview, w.Stage)
	assert.True(t, w.CanConfirm())
}

func TestWizardGates(t *testing.T) {
	t.Run("incomplete customer info", func(t *testing.T) {
		w := NewWizard()
		w.Customer = entity.CustomerInfo{Username: "maria", DPI: "123"}

		err := w.Advance()
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, StageCustomer, vErr.Stage)
		assert.Equal(t, StageCustomer, w.Stage, "failed advance must not move the stage")
	})

	t.Run("no payment method selected", func(t *testing.T) {
		w := &Wizard{Stage: StagePayment}
		var vErr *ValidationError
		require.ErrorAs(t, w.Advance(), &vErr)
		assert.Equal(t, StagePayment, w.Stage)
	})

	t.Run("delivery requires an address", func(t *testing.T) {
		w := &Wizard{Stage: StageShipping, ShippingMethod: ShippingDelivery, Address: "   "}
		var vErr *ValidationError
		require.ErrorAs(t, w.Advance(), &vErr)
		assert.Equal(t, StageShipping, w.Stage)

		w.Address = "4a avenida 5-55, zona 1"
		require.NoError(t, w.Advance())
		assert.Equal(t, StageReview, w.Stage)
	})

	t.Run("pickup needs no address", func(t *testing.T) {
		w := &Wizard{Stage: StageShipping, ShippingMethod: ShippingPickup}
		require.NoError(t, w.Advance())
	})

	t.Run("review is terminal for advance", func(t *testing.T) {
		w := &Wizard{Stage: StageReview}
		assert.Error(t, w.Advance())
	})
}

func TestWizardBack(t *testing.T) {
	w := &Wizard{
		Stage:          StageReview,
		Customer:       entity.CustomerInfo{FinalConsumer: true},
		PaymentMethod:  entity.PaymentCard,
		ShippingMethod: ShippingPickup,
	}

	w.Back()
	assert.Equal(t, StageShipping, w.Stage)
	w.Back()
	assert.Equal(t, StagePayment, w.Stage)
	assert.Equal(t, entity.PaymentCard, w.PaymentMethod, "entered values survive going back")
	w.Back()
	assert.Equal(t, StageCustomer, w.Stage)
	w.Back() // first stage, no-op
	assert.Equal(t, StageCustomer, w.Stage)
}
