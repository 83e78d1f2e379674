package httpapi

import (
	"net/http"
	"strings"
	"time"

	"ridepulse/internal/jwt"
)

type createTokenRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// handleCreateToken mints a bearer token. It exists for local development
// and testing; production deployments front this service with a real
// identity provider and disable the route.
func (handler *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTokenRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Subject) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "subject is required", nil)
		return
	}
	role, ok := jwt.ParseRole(req.Role)
	if !ok {
		handler.httpError(ctx, w, http.StatusBadRequest, "role must be RIDER, DRIVER or ADMIN", nil)
		return
	}

	token, claims, err := handler.auth.IssuePartyToken(strings.TrimSpace(req.Subject), role)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	type response struct {
		Token     string    `json:"token"`
		Subject   string    `json:"subject"`
		Role      string    `json:"role"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	handler.jsonResponse(ctx, w, http.StatusCreated, response{
		Token:     token,
		Subject:   claims.Subject,
		Role:      string(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
