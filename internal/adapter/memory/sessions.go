package memory

import (
	"context"
	"sync"

	"technowear/internal/domain"
)

// SessionStore keeps sessions per browser id and calls watchers synchronously
// after every change, outside the lock.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	watchers map[string]map[uint64]func(*domain.Session)
	nextID   uint64
}

var _ domain.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		watchers: make(map[string]map[uint64]func(*domain.Session)),
	}
}

// Load returns the stored session, or nil.
func (s *SessionStore) Load(ctx context.Context, sid string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sid]
	if !ok {
		return nil, nil
	}
	ret := *sess
	return &ret, nil
}

// Save stores a session and notifies watchers.
func (s *SessionStore) Save(ctx context.Context, sid string, sess *domain.Session) error {
	cp := *sess
	s.mu.Lock()
	s.sessions[sid] = &cp
	fns := s.listenersLocked(sid)
	s.mu.Unlock()

	for _, fn := range fns {
		c := cp
		fn(&c)
	}
	return nil
}

// Delete removes the session and notifies watchers with nil.
func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	s.mu.Lock()
	delete(s.sessions, sid)
	fns := s.listenersLocked(sid)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
	return nil
}

// Watch registers fn for changes to sid.
func (s *SessionStore) Watch(sid string, fn func(*domain.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watchers[sid] == nil {
		s.watchers[sid] = make(map[uint64]func(*domain.Session))
	}
	s.nextID++
	id := s.nextID
	s.watchers[sid][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.watchers[sid], id)
			if len(s.watchers[sid]) == 0 {
				delete(s.watchers, sid)
			}
		})
	}
}

func (s *SessionStore) listenersLocked(sid string) []func(*domain.Session) {
	fns := make([]func(*domain.Session), 0, len(s.watchers[sid]))
	for _, fn := range s.watchers[sid] {
		fns = append(fns, fn)
	}
	return fns
}
