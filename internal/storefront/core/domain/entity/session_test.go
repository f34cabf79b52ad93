package entity

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenWithPayload(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." + enc([]byte(payload)) + ".sig"
}

func TestDecodeClaims(t *testing.T) {
	t.Run("extracts role and dpi", func(t *testing.T) {
		claims, err := DecodeClaims(tokenWithPayload(t, `{"role":"seller","dpi":"1234567890123","iat":1}`))
		require.NoError(t, err)
		assert.Equal(t, RoleSeller, claims.Role)
		assert.Equal(t, "1234567890123", claims.DPI)
	})

	t.Run("rejects a non-jwt token", func(t *testing.T) {
		_, err := DecodeClaims("not-a-jwt")
		assert.Error(t, err)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		_, err := DecodeClaims(tokenWithPayload(t, `{"role":"superuser"}`))
		assert.ErrorIs(t, err, ErrUnknownRole)
	})
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("  Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapManageUsers))
	assert.True(t, RoleAdmin.Can(CapViewAuditLog))

	assert.True(t, RoleSeller.Can(CapManageClients))
	assert.True(t, RoleSeller.Can(CapRegisterSales))
	assert.False(t, RoleSeller.Can(CapManageProducts))
	assert.False(t, RoleSeller.Can(CapViewAuditLog))

	assert.False(t, RoleClient.Can(CapManageClients))

	var none *Session
	assert.False(t, none.Can(CapManageProducts), "nil session holds nothing")
}

func TestCustomerInfoComplete(t *testing.T) {
	assert.True(t, CustomerInfo{FinalConsumer: true}.Complete())
	assert.True(t, CustomerInfo{Username: "maria", DPI: "1234567890123"}.Complete())
	assert.False(t, CustomerInfo{Username: "maria", DPI: "123"}.Complete())
	assert.False(t, CustomerInfo{DPI: "1234567890123"}.Complete())
	assert.False(t, CustomerInfo{}.Complete())
}
