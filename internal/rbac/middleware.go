// Package rbac gates HTTP routes on the role forwarded by the API gateway.
package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kapas-trade/kapas-trade/internal/shared"
)

// Role names known to the trading backend.
const (
	RoleAdmin    = "admin"
	RoleTrader   = "trader"
	RoleApprover = "approver"
	RoleAccounts = "accounts"
)

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

// Middleware wires role-based authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// WithActor extracts the gateway-forwarded actor into the request context.
// Requests without actor headers pass through anonymously; role-gated routes
// reject them downstream.
func (m Middleware) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get(headerActorID)
		role := strings.ToLower(strings.TrimSpace(r.Header.Get(headerActorRole)))
		if rawID == "" || role == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("rbac bad actor id", slog.String("value", rawID))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		ctx := shared.ContextWithActor(r.Context(), shared.Actor{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAny ensures the current actor holds at least one of the given roles.
// Admin always passes.
func (m Middleware) RequireAny(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if actor.Role == RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := allowed[actor.Role]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied", slog.String("role", actor.Role), slog.String("path", r.URL.Path))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
