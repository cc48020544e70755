package catalog

import (
	"nutrition-catalog/domain"
	"sync"
	"time"
)

const DefaultSessionIdle = 30 * time.Minute

type (
	// Sessions keeps one Aggregator per user so every user sees their own
	// pending and local items.
	Sessions struct {
		mu       sync.Mutex
		sessions map[string]*session
		build    func(user domain.Identity) Aggregator
		maxIdle  time.Duration
		now      func() time.Time
	}

	session struct {
		aggregator Aggregator
		lastUsed   time.Time
	}
)

func NewSessions(build func(user domain.Identity) Aggregator, maxIdle time.Duration) *Sessions {
	if maxIdle <= 0 {
		maxIdle = DefaultSessionIdle
	}
	return &Sessions{
		sessions: make(map[string]*session),
		build:    build,
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

// For returns the user's aggregator, creating it on first use. Sessions idle
// for longer than maxIdle are dropped.
func (s *Sessions) For(user domain.Identity) Aggregator {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, sess := range s.sessions {
		if id != user.ID && now.Sub(sess.lastUsed) > s.maxIdle {
			delete(s.sessions, id)
		}
	}
	sess, ok := s.sessions[user.ID]
	if !ok {
		sess = &session{aggregator: s.build(user)}
		s.sessions[user.ID] = sess
	}
	sess.lastUsed = now
	return sess.aggregator
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
