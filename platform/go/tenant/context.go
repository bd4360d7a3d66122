package tenant

import "context"

type ctxKey struct{}

// WithIdentity returns a derived context carrying the resolved tenant ID.
// The identity is threaded explicitly through every storage call; there is
// deliberately no package-level "current tenant" variable.
func WithIdentity(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the tenant ID and a boolean indicating presence.
func FromContext(ctx context.Context) (ID, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return "", false
	}
	id, ok := v.(ID)
	return id, ok
}
