package session

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/onnxscope/core/internal/graph"
	"github.com/onnxscope/core/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Store keeps live sessions in memory. When Limit is reached the least
// recently used session is dropped to make room.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limit    int
	opts     graph.Options
}

func NewStore(limit int, opts graph.Options) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		limit:    limit,
		opts:     opts,
	}
}

func (st *Store) Create(model *models.ParsedModel) *Session {
	s := New(uuid.NewString(), model, st.opts)

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.limit > 0 && len(st.sessions) >= st.limit {
		st.evictLocked()
	}
	st.sessions[s.ID] = s

	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.sessions)
}

// Limit is the number of sessions kept before the least recently used one is
// evicted. Zero means unbounded.
func (st *Store) Limit() int {
	return st.limit
}

func (st *Store) evictLocked() {
	var oldest *Session
	for _, s := range st.sessions {
		if oldest == nil || s.UpdatedAt().Before(oldest.UpdatedAt()) {
			oldest = s
		}
	}

	if oldest != nil {
		log.Printf("session store full, evicting %s", oldest.ID)
		delete(st.sessions, oldest.ID)
	}
}
