package auth

import "context"

type contextKey struct{}

// Identity is the authenticated caller, resolved by the access-guard
// middleware and attached to the request context.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// UserID returns the authenticated user's ID, or "" when the request
// never passed the access guard.
func UserID(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.UserID
}
