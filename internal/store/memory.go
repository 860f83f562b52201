package store

import (
	"sync"

	"github.com/campointeligente/chatbot/internal/models"
)

// InMemoryStore keeps all records in process memory. It backs tests and
// runs without a configured database DSN.
type InMemoryStore struct {
	mu           sync.RWMutex
	users        map[string]models.UserSession
	prompts      map[string]models.PromptTemplate
	states       []models.StateRef
	interactions []models.Interaction
	nextID       int64
}

// NewInMemoryStore creates an empty in-memory store pre-seeded with the
// federative-unit table and the default prompt templates, mirroring what the
// SQL migrations seed for the persistent backends.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		users:   make(map[string]models.UserSession),
		prompts: make(map[string]models.PromptTemplate),
		nextID:  1,
	}
	s.states = append(s.states, DefaultStates()...)
	for _, p := range DefaultPrompts() {
		s.prompts[p.Key] = p
	}
	return s
}

func (s *InMemoryStore) GetUser(id string) (*models.UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	cp.Context = copyContext(u.Context)
	return &cp, nil
}

func (s *InMemoryStore) SaveUser(user *models.UserSession) error {
	if user.ID == "" {
		return models.ErrEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	cp.Context = copyContext(user.Context)
	s.users[user.ID] = cp
	return nil
}

func (s *InMemoryStore) GetPrompt(key string) (*models.PromptTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[key]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SavePrompt inserts or updates a prompt template (used by tests and seeding).
func (s *InMemoryStore) SavePrompt(p models.PromptTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[p.Key] = p
	return nil
}

func (s *InMemoryStore) ListStates() ([]models.StateRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StateRef, len(s.states))
	copy(out, s.states)
	return out, nil
}

func (s *InMemoryStore) AddInteraction(i models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = s.nextID
	s.nextID++
	s.interactions = append(s.interactions, i)
	return nil
}

func (s *InMemoryStore) GetInteractions() ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Interaction, len(s.interactions))
	copy(out, s.interactions)
	return out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func copyContext(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
