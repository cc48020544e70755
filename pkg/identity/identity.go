package identity

import (
	"context"
	"nutrition-catalog/domain"
	"strings"
)

type ctxKey struct{}

type (
	// Provider reports the acting user. Both methods return false when there
	// is none.
	Provider interface {
		CurrentUserID(ctx context.Context) (string, bool)
		CurrentUser(ctx context.Context) (domain.Identity, bool)
	}

	contextProvider struct{}

	// Static always reports the same identity. The zero value reports none.
	Static domain.Identity
)

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// FromContext reads identities placed by WithUser.
func FromContext() Provider {
	return contextProvider{}
}

func (contextProvider) CurrentUser(ctx context.Context) (domain.Identity, bool) {
	user, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok || strings.TrimSpace(user.ID) == "" {
		return domain.Identity{}, false
	}
	return user, true
}

func (p contextProvider) CurrentUserID(ctx context.Context) (string, bool) {
	user, ok := p.CurrentUser(ctx)
	return user.ID, ok
}

func (s Static) CurrentUser(context.Context) (domain.Identity, bool) {
	if strings.TrimSpace(s.ID) == "" {
		return domain.Identity{}, false
	}
	return domain.Identity(s), true
}

func (s Static) CurrentUserID(ctx context.Context) (string, bool) {
	user, ok := s.CurrentUser(ctx)
	return user.ID, ok
}
