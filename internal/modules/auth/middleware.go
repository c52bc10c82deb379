package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
)

// Middleware rejects requests without a valid bearer token and binds the store account to the context.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			ownerID, err := svc.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInactiveAccount):
				respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			case err != nil:
				respond(w, http.StatusServiceUnavailable, map[string]string{"error": "could not verify session, please try again"})
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithOwner(r.Context(), ownerID)))
		})
	}
}
