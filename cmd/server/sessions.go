package main

import (
	"sync"

	"github.com/google/uuid"

	"github.com/medbotorg/medbot/llm"
)

// maxStoredTurns caps how many messages a session retains. The engine trims
// further down to its prompt window; this cap only bounds memory.
const maxStoredTurns = 20

// sessionStore keeps per-session conversation history in memory. Sessions
// live for the process lifetime; there is no persistence.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string][]llm.Message
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string][]llm.Message)}
}

// resolve returns the history for id and the id itself, minting a fresh
// session when id is empty or unknown.
func (s *sessionStore) resolve(id string) (string, []llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	history, ok := s.sessions[id]
	if !ok {
		s.sessions[id] = nil
		return id, nil
	}

	out := make([]llm.Message, len(history))
	copy(out, history)
	return id, out
}

// append records one exchange on the session.
func (s *sessionStore) append(id, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[id],
		llm.Message{Role: "user", Content: userText},
		llm.Message{Role: "assistant", Content: assistantText},
	)
	if len(history) > maxStoredTurns {
		history = history[len(history)-maxStoredTurns:]
	}
	s.sessions[id] = history
}

// reset clears a session's history. Resetting an unknown session is a no-op.
func (s *sessionStore) reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
