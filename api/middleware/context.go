package middleware

import (
	"context"

	"github.com/google/uuid"
)

// principal is the authenticated caller Auth attaches to the request.
type principal struct {
	userID uuid.UUID
	email  string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, userID uuid.UUID, email string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal{userID: userID, email: email})
}

func principalFrom(ctx context.Context) (principal, bool) {
	if ctx == nil {
		return principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok && p.userID != uuid.Nil
}

// UserUUIDFromContext returns the caller's id; ok is false outside Auth.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := principalFrom(ctx)
	return p.userID, ok
}

// UserIDFromContext is the string form, empty for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if p, ok := principalFrom(ctx); ok {
		return p.userID.String()
	}
	return ""
}

func UserEmailFromContext(ctx context.Context) string {
	p, _ := principalFrom(ctx)
	return p.email
}

// WithUserID attaches a caller id without going through Auth. Invalid ids leave ctx anonymous.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return ctx
	}
	return withPrincipal(ctx, id, "")
}
