package state

import (
	"sort"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/puzpuzpuz/xsync/v3"
)

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps sessions for the lifetime of the process.
//
// Stored *Session values are never mutated after they are published to the
// map; every write installs a new value through Compute, so readers can copy
// a loaded value without further locking.
type MemoryStore struct {
	sessions *xsync.MapOf[string, *Session]
	locks    *xsync.MapOf[string, chan struct{}]
	now      func() time.Time
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: xsync.NewMapOf[string, *Session](),
		locks:    xsync.NewMapOf[string, chan struct{}](),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession installs a fresh empty session, replacing any existing one.
func (s *MemoryStore) CreateSession(id string) Session {
	sess := newSession(id, s.now())
	s.sessions.Store(id, sess)
	return sess.clone()
}

func (s *MemoryStore) GetOrCreateSession(id string) Session {
	sess, _ := s.sessions.LoadOrCompute(id, func() *Session {
		return newSession(id, s.now())
	})
	return sess.clone()
}

// UpdateSession replaces the transcript wholesale, creating the session when
// it does not exist yet.
func (s *MemoryStore) UpdateSession(id string, transcript []*schema.Message) {
	now := s.now().UTC()
	next := CloneTranscript(transcript)
	s.sessions.Compute(id, func(old *Session, loaded bool) (*Session, bool) {
		createdAt := now
		if loaded {
			createdAt = old.CreatedAt
		}
		return &Session{
			ID:            id,
			Transcript:    next,
			CreatedAt:     createdAt,
			LastUpdatedAt: now,
		}, false
	})
}

func (s *MemoryStore) GetHistory(id string) []*schema.Message {
	sess, ok := s.sessions.Load(id)
	if !ok {
		return []*schema.Message{}
	}
	return CloneTranscript(sess.Transcript)
}

// ClearSession empties the transcript but keeps the session identity and
// creation time. Unknown ids are ignored.
func (s *MemoryStore) ClearSession(id string) {
	now := s.now().UTC()
	s.sessions.Compute(id, func(old *Session, loaded bool) (*Session, bool) {
		if !loaded {
			return old, true
		}
		return &Session{
			ID:            id,
			Transcript:    []*schema.Message{},
			CreatedAt:     old.CreatedAt,
			LastUpdatedAt: now,
		}, false
	})
}

func (s *MemoryStore) DeleteSession(id string) {
	s.sessions.Delete(id)
}

// Sweep removes sessions whose last update is strictly older than maxAge and
// returns how many were removed. Staleness is rechecked under the key's lock
// so a session written during the sweep survives.
func (s *MemoryStore) Sweep(maxAge time.Duration) int {
	cutoff := s.now().UTC().Add(-maxAge)

	var candidates []string
	s.sessions.Range(func(id string, sess *Session) bool {
		if sess.LastUpdatedAt.Before(cutoff) {
			candidates = append(candidates, id)
		}
		return true
	})

	removed := 0
	for _, id := range candidates {
		s.sessions.Compute(id, func(old *Session, loaded bool) (*Session, bool) {
			if !loaded {
				return old, true
			}
			if old.LastUpdatedAt.Before(cutoff) {
				removed++
				return old, true
			}
			return old, false
		})
	}
	return removed
}

// Sessions returns a snapshot of every session, oldest first.
func (s *MemoryStore) Sessions() []Session {
	out := make([]Session, 0, s.sessions.Size())
	s.sessions.Range(func(_ string, sess *Session) bool {
		out = append(out, sess.clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) Len() int {
	return s.sessions.Size()
}
