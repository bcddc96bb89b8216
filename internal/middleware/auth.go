package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/devflow-collective/devflow/internal/auth"
)

// Authenticate returns a middleware that validates the Bearer token on
// incoming requests. On success the user ID and role are stored in the
// request context for downstream handlers and logging.
//
// Requests without a token, with a malformed Authorization header, or with
// an invalid or expired token are rejected with 401 Unauthorized. Refresh
// tokens are not accepted on API endpoints.
func Authenticate(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, r, "missing_token", "Authorization header required")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r, "invalid_token", "Authorization header must be a Bearer token")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				code := "invalid_token"
				if errors.Is(err, auth.ErrExpiredToken) {
					code = "expired_token"
				}
				unauthorized(w, r, code, "Invalid or expired token")
				return
			}

			if claims.Type != auth.TokenTypeAccess {
				unauthorized(w, r, "invalid_token", "Access token required")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			ctx = SetUserRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireModerator returns a middleware that rejects requests whose
// authenticated role cannot moderate. It must run after Authenticate.
func RequireModerator() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetUserRole(r.Context())
			if role != auth.RoleModerator && role != auth.RoleAdmin {
				ctx := SetErrorCode(r.Context(), "forbidden")
				r = r.WithContext(ctx)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, code, message string) {
	// Set error code for logging middleware
	r = r.WithContext(SetErrorCode(r.Context(), code))
	w.Header().Set("WWW-Authenticate", `Bearer realm="devflow"`)
	http.Error(w, message, http.StatusUnauthorized)
}
