package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"amenitybook/internal/auth"
)

// BearerAuth verifies the `Authorization: Bearer <JWT>` header issued by the
// identity service and attaches the caller to the request context.
func BearerAuth(v auth.Verifier, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
				return
			}

			p, err := v.Verify(strings.TrimSpace(authz[7:]), now())
			if err != nil {
				log.Printf("auth: rejected token path=%s err=%v", r.URL.Path, err)
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequirePrincipal writes 401 and returns nil when the request is anonymous.
func RequirePrincipal(w http.ResponseWriter, r *http.Request) *auth.Principal {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "missing identity")
	}
	return p
}
