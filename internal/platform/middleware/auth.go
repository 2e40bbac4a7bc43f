package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	DriverID    string
	DriverName  string
	DriverEmail string
}

// Context keys for storing authenticated driver information.
type contextKeyDriverID struct{}
type contextKeyDriverName struct{}
type contextKeyDriverEmail struct{}

var (
	ContextKeyDriverID    = contextKeyDriverID{}
	ContextKeyDriverName  = contextKeyDriverName{}
	ContextKeyDriverEmail = contextKeyDriverEmail{}
)

// GetDriverID retrieves the authenticated driver ID from the context.
func GetDriverID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyDriverID).(string)
	return id
}

// GetDriverName retrieves the authenticated driver's display name.
func GetDriverName(ctx context.Context) string {
	name, _ := ctx.Value(ContextKeyDriverName).(string)
	return name
}

// GetDriverEmail retrieves the authenticated driver's email.
func GetDriverEmail(ctx context.Context) string {
	email, _ := ctx.Value(ContextKeyDriverEmail).(string)
	return email
}

// RequireAuth rejects requests without a valid bearer token and injects the
// driver claims into the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyDriverID, claims.DriverID)
			ctx = context.WithValue(ctx, ContextKeyDriverName, claims.DriverName)
			ctx = context.WithValue(ctx, ContextKeyDriverEmail, claims.DriverEmail)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
