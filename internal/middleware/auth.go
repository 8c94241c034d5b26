package middleware

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithUser returns a context carrying the given user ID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserUpserter persists users seen for the first time.
type UserUpserter interface {
	UpsertUser(ctx context.Context, user *models.User) error
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// The first request from a new subject creates its user row; later requests
// from the same subject skip the write.
func RequireAuth(jwtManager *auth.JWTManager, users UserUpserter) connect.UnaryInterceptorFunc {
	var seen sync.Map

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				slog.Warn("Unauthenticated RPC", "procedure", procedure, "error", auth.ErrMissingToken)
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				slog.Warn("Unauthenticated RPC", "procedure", procedure, "error", auth.ErrInvalidToken)
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				slog.Warn("Unauthenticated RPC", "procedure", procedure, "error", err)
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			userID := claims.CallerID()
			if _, ok := seen.Load(userID); !ok {
				name := claims.Name
				if name == "" {
					name = claims.Email
				}
				if err := users.UpsertUser(ctx, models.NewUser(userID, claims.Email, name)); err != nil {
					slog.Error("Failed to record user", "user_id", userID, "error", err)
					return nil, connect.NewError(connect.CodeInternal, err)
				}
				seen.Store(userID, struct{}{})
			}

			ctx = WithUser(ctx, userID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			return next(ctx, req)
		}
	}
}

// ServerInterceptors returns the interceptors every service is mounted with,
// outermost first. Authentication runs before logging so that RPC logs carry
// the caller's user ID; rejected credentials are logged by RequireAuth itself.
func ServerInterceptors(jwtManager *auth.JWTManager, users UserUpserter) []connect.Interceptor {
	return []connect.Interceptor{
		RequireAuth(jwtManager, users),
		LoggingInterceptor(),
	}
}
