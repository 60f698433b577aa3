package credentials

import (
	"context"
)

var principalCtxKey = &contextKey{"principal"}
var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithPrincipal stores the authorized principal in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext finds the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(*Principal)
	return p, ok && p != nil
}

// WithUser sets the User in the given context
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userCtxKey).(*User)
	return u, ok && u != nil
}

// HasRole reports whether the principal in ctx ranks at least min.
func HasRole(ctx context.Context, min Role) bool {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return false
	}
	return p.Role.IsAtLeast(min)
}

// AuthorizeContext authorizes token and returns a context carrying the
// resulting principal.
func (m *Manager) AuthorizeContext(ctx context.Context, token string) (context.Context, *Principal, error) {
	p, err := m.Authorize(ctx, token)
	if err != nil {
		return ctx, nil, err
	}
	return WithPrincipal(ctx, p), p, nil
}
