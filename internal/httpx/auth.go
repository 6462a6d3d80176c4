package httpx

import (
	"context"
	"net/http"

	"github.com/adiwangsa/go-marketplace/internal/market"
)

// Principal is what the auth collaborator hands us per request. Session
// issuance and verification live at the gateway; by the time a request gets
// here the identity headers are trusted.
type Principal struct {
	ID   string
	Role market.Role
}

type principalKey struct{}

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// WithPrincipal rejects requests without identity headers and stashes the
// principal in the request context for handlers.
func WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderUserID)
		role := market.Role(r.Header.Get(HeaderUserRole))
		if id == "" || (role != market.RoleBuyer && role != market.RoleSeller) {
			writeError(w, http.StatusUnauthorized, "missing or invalid identity")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, Principal{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
