package catalog

import (
	"nutrition-catalog/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessions_OnePerUserAndIdleEviction(t *testing.T) {
	built := 0
	e := newEnv()
	s := NewSessions(func(user domain.Identity) Aggregator {
		built++
		return NewAggregator(e.deps)
	}, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	a1 := s.For(domain.Identity{ID: "alice"})
	a2 := s.For(domain.Identity{ID: "alice"})
	assert.Same(t, a1, a2)
	s.For(domain.Identity{ID: "bob"})
	assert.Equal(t, 2, built)
	assert.Equal(t, 2, s.Len())

	now = now.Add(2 * time.Minute)
	s.For(domain.Identity{ID: "bob"})
	assert.Equal(t, 1, s.Len())

	a3 := s.For(domain.Identity{ID: "alice"})
	assert.NotSame(t, a1, a3)
	assert.Equal(t, 3, built)
}
