package session

import (
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/models"
)

// Registry owns the live sessions, keyed by UUID. Each session is driven by
// one logical caller; the registry only hands them out.
type Registry struct {
	mu       sync.Mutex
	deps     Deps
	username string
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry. username is the local
// scoreboard identity used when a session does not name its own.
func NewRegistry(deps Deps, username string) *Registry {
	return &Registry{
		deps:     deps,
		username: username,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session and registers it.
func (r *Registry) Create(language string, difficulty models.Difficulty, mode models.Mode, username string) (*Session, error) {
	if username == "" {
		username = r.username
	}

	s, err := New(uuid.NewString(), username, language, difficulty, mode, r.deps)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns a registered session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("session", id)
	}
	return s, nil
}

// Remove drops a session from the registry, cancelling its timers.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.mu.Lock()
		s.cancelTimersLocked()
		s.generation++
		s.mu.Unlock()
	}
}
