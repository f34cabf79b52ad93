package entity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of roles the backend issues in its tokens. String
// comparisons against raw token claims are confined to ParseRole.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleClient Role = "client"
)

// ErrUnknownRole is returned for any role string outside the closed set.
var ErrUnknownRole = errors.New("session: unknown role")

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSeller:
		return RoleSeller, nil
	case RoleClient:
		return RoleClient, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Capability names an operation a role may perform. Handlers gate on
// capabilities, never on role strings.
type Capability int

const (
	CapManageProducts Capability = iota
	CapManageClients
	CapManageWorkers
	CapManageUsers
	CapViewSuppliers
	CapViewBatches
	CapViewInvoices
	CapViewAuditLog
	CapViewStatistics
	CapViewMovements
	CapRegisterSales
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapManageProducts: true,
		CapManageClients:  true,
		CapManageWorkers:  true,
		CapManageUsers:    true,
		CapViewSuppliers:  true,
		CapViewBatches:    true,
		CapViewInvoices:   true,
		CapViewAuditLog:   true,
		CapViewStatistics: true,
		CapViewMovements:  true,
		CapRegisterSales:  true,
	},
	RoleSeller: {
		CapManageClients: true,
		CapViewBatches:   true,
		CapViewInvoices:  true,
		CapRegisterSales: true,
	},
	RoleClient: {},
}

// Can reports whether the role holds the capability. Unknown roles hold none.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

// Claims is the subset of the backend token payload this layer reads. The
// payload is decoded, never verified; the backend is the authority on every
// authenticated call.
type Claims struct {
	Role Role
	DPI  string
}

// DecodeClaims extracts role and DPI from a JWT-shaped bearer token.
func DecodeClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, errors.New("session: token is not JWT-shaped")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, fmt.Errorf("session: decode token payload: %w", err)
	}
	var raw struct {
		Role string `json:"role"`
		DPI  string `json:"dpi"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Claims{}, fmt.Errorf("session: parse token payload: %w", err)
	}
	role, err := ParseRole(raw.Role)
	if err != nil {
		return Claims{}, err
	}
	return Claims{Role: role, DPI: raw.DPI}, nil
}

// Session is the explicit session context constructed once at login and
// injected into every component that needs it. Logout deletes it from the
// session store, which is the single invalidation point.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	DPI       string    `json:"dpi"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Can is a convenience passthrough to the role's capability check.
func (s *Session) Can(c Capability) bool {
	if s == nil {
		return false
	}
	return s.Role.Can(c)
}
