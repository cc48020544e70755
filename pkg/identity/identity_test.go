package identity

import (
	"context"
	"nutrition-catalog/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	p := FromContext()

	_, ok := p.CurrentUser(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), domain.Identity{ID: "u1", Email: "u1@example.com"})
	user, ok := p.CurrentUser(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1@example.com", user.Email)

	id, ok := p.CurrentUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	_, ok = p.CurrentUserID(WithUser(context.Background(), domain.Identity{Email: "anon@example.com"}))
	assert.False(t, ok)
}

func TestStatic(t *testing.T) {
	_, ok := Static{}.CurrentUser(context.Background())
	assert.False(t, ok)

	id, ok := Static{ID: "cli"}.CurrentUserID(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "cli", id)
}
