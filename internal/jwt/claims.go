package jwt

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Role is the party role carried in token claims for RBAC.
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole normalizes (uppercases+trims) and validates a role string.
func ParseRole(in string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(in)))
	return role, role.Valid()
}

// Valid reports whether the role is one of the allowed role constants.
func (role Role) Valid() bool {
	switch role {
	case RoleRider, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

// Claims defines our canonical JWT claims payload.
type Claims struct {
	Role Role `json:"role"` // party role for RBAC (RIDER/DRIVER/ADMIN)
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewPartyClaims constructs end-user claims (rider/driver/admin).
func NewPartyClaims(partyID string, role Role, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   partyID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
