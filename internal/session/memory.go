package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Domenick1991/bnbchat/internal/domain"
)

type memorySession struct {
	lock       chan struct{}
	waiters    int
	pending    *domain.DateRange
	transcript []domain.Message
	touched    time.Time
}

// MemoryStore is the in-process session table. Each session id has its own
// lock so turns for one session are serialised while other sessions proceed.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore returns an empty table. A zero ttl disables Sweep.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) session(id string) *memorySession {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &memorySession{lock: make(chan struct{}, 1)}
		s.sessions[id] = sess
	}
	sess.touched = s.now()
	return sess
}

// Lock blocks until the caller owns sessionID or ctx is done.
func (s *MemoryStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	s.mu.Lock()
	sess := s.session(sessionID)
	sess.waiters++
	s.mu.Unlock()

	select {
	case sess.lock <- struct{}{}:
	case <-ctx.Done():
		s.mu.Lock()
		sess.waiters--
		s.mu.Unlock()
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			sess.waiters--
			sess.touched = s.now()
			s.mu.Unlock()
			<-sess.lock
		})
	}, nil
}

func (s *MemoryStore) Pending(_ context.Context, sessionID string) (*domain.DateRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.pending == nil {
		return nil, nil
	}
	p := *sess.pending
	return &p, nil
}

func (s *MemoryStore) SetPending(_ context.Context, sessionID string, r domain.DateRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(sessionID).pending = &r
	return nil
}

func (s *MemoryStore) ClearPending(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.pending = nil
	}
	return nil
}

func (s *MemoryStore) Transcript(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(sess.transcript), nil
}

func (s *MemoryStore) SetTranscript(_ context.Context, sessionID string, messages []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(sessionID).transcript = slices.Clone(messages)
	return nil
}

// Sweep drops sessions idle for longer than the ttl and returns how many were
// removed. Sessions that are locked or awaited are kept.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.waiters > 0 || sess.touched.After(deadline) {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
