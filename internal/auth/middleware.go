package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/jobsterhq/jobster-be/internal/apperror"
)

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// ClaimsFromContext retrieves the authenticated claims set by Authenticator.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// Authenticator creates middleware that validates the session token and
// attaches the resolved identity to the request context. The token is read
// from the "token" cookie first, then the Authorization header. A missing,
// invalid, or expired token halts the request with 401.
func Authenticator(ts *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string

			if cookie, err := r.Cookie("token"); err == nil {
				tokenStr = cookie.Value
			}
			if tokenStr == "" {
				authHeader := r.Header.Get("Authorization")
				if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
					tokenStr = after
				}
			}
			if tokenStr == "" {
				apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
				return
			}

			claims, err := ts.VerifySessionToken(tokenStr)
			if err != nil {
				msg := "Session token is invalid. Log in again"
				if err == ErrTokenExpired {
					msg = "Session has expired. Log in again"
				}
				apperror.Write(w, r, apperror.NewAuthentication(msg, err))
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles creates middleware enforcing role membership after
// authentication. Accounts outside the allowed set get 403.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
				return
			}
			if !allowed[claims.Role] {
				apperror.Write(w, r, apperror.NewAuthorization("Role '"+claims.Role+"' is not allowed to access this resource", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
