package cli

import (
	"fmt"
	"time"

	"ridepulse/internal/jwt"
)

// GeneratePartyToken mints a short-lived JWT for a seeded rider, driver or
// admin. It uses jwt.Manager and returns the raw token plus the claims.
//
// Keep this package dev/internal only. Do not call it from production code paths.
func GeneratePartyToken(secret, partyID, roleStr string, ttl time.Duration) (string, jwt.Claims, error) {
	role, ok := jwt.ParseRole(roleStr)
	if !ok {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: must be RIDER, DRIVER or ADMIN", roleStr)
	}

	mgr := jwt.NewManager(secret, ttl)

	token, claims, err := mgr.IssuePartyToken(partyID, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}
