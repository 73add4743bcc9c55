package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/httputil"
	"capledger/pkg/requestcontext"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims we expect from the token validator.
type TokenClaims struct {
	UserID        id.UserID
	Role          id.Role
	ShareholderID id.ShareholderID // zero for admin actors
}

// RequireAuth validates the Authorization header and injects the actor's
// identity, role, and shareholder binding into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx := r.Context()
			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			if !claims.ShareholderID.IsNil() {
				ctx = requestcontext.WithShareholderID(ctx, claims.ShareholderID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route to admin actors. It must run after RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != id.RoleAdmin {
				logger.WarnContext(ctx, "forbidden - admin role required",
					"request_id", requestcontext.RequestID(ctx),
					"role", requestcontext.Role(ctx).String(),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
