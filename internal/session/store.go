// Package session keeps per-conversation chat history in process. The store
// is passed explicitly to whatever handles conversations; there is no
// persistence, so histories reset with the process while the vectors in the
// index survive.
package session

import (
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Store maps conversation identifiers to chat histories. Safe for concurrent
// use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]Message)}
}

// Append adds a message to a conversation, creating the conversation if it
// does not exist yet (e.g., after a process restart).
func (s *Store) Append(conversationID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[conversationID] = append(s.sessions[conversationID], Message{
		Role:    role,
		Content: content,
		At:      time.Now(),
	})
}

// History returns a copy of the conversation's messages in order.
func (s *Store) History(conversationID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[conversationID]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Delete removes a conversation's history. Deleting an unknown conversation
// is a no-op.
func (s *Store) Delete(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, conversationID)
}
