package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/auth"
)

type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*auth.Principal, error)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// Optional attaches the principal when a valid token is present and lets the request through otherwise.
func Optional(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h := r.Header.Get("Authorization"); h != "" {
				if p, err := a.Authenticate(r.Context(), h); err == nil {
					r = r.WithContext(auth.WithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				fail(w, r, fmt.Errorf("no principal: %w", apperr.ErrUnauthorized))
				return
			}
			if !p.HasRole(roles...) {
				fail(w, r, fmt.Errorf("role %q is not one of %s: %w", p.Role, strings.Join(roles, ", "), apperr.ErrForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}
