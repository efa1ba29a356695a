package middleware

import (
	"context"
	"net/http"
	"strings"

	"finai/internal/shared/auth"
)

type contextKey string

// PrincipalKey holds the authenticated *auth.JWTClaims in the request context.
const PrincipalKey contextKey = "principal"

// Auth validates the access token from the Authorization header or the
// access_token cookie and injects the principal into the request context.
func Auth(jwt *auth.JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwt.Validate(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the authenticated claims from the context, if any.
func PrincipalFrom(ctx context.Context) (*auth.JWTClaims, bool) {
	claims, ok := ctx.Value(PrincipalKey).(*auth.JWTClaims)
	return claims, ok
}

func extractToken(r *http.Request) string {
	if hdr := r.Header.Get("Authorization"); strings.HasPrefix(hdr, "Bearer ") {
		return strings.TrimPrefix(hdr, "Bearer ")
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
