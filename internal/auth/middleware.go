package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const claimsKey contextKey = iota

// ClaimsFromContext returns the verified session claims stored by the auth
// middleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// requireAuth verifies the bearer token and stores its claims on the request
// context before calling next.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.bearerClaims(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// requireAdmin is requireAuth restricted to administrators.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		if !claims.IsAdmin {
			writeError(w, ErrForbidden)
			return
		}
		next(w, r)
	})
}

func (h *Handler) bearerClaims(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return nil, ErrNoToken
	}
	claims, err := h.issuer.Verify(tokenString)
	if err != nil {
		return nil, ErrNoToken
	}
	return claims, nil
}
