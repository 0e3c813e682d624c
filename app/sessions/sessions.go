package sessions

import (
	"context"
	"fmt"
	"sync"

	"GoTrackerAI/app/models"
)

// DefaultWindow is how many turns a session keeps before the oldest
// are discarded.
const DefaultWindow = 10

// Store keeps a bounded per-user message window for the ad-hoc chat
// endpoint. Sessions are independent; only the per-user window is bounded.
type Store struct {
	mu       sync.Mutex
	window   int
	sessions map[string][]models.Message
}

func NewStore(window int) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Store{window: window, sessions: make(map[string][]models.Message)}
}

// Append records one turn and trims the session to the window size.
func (s *Store) Append(userID string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.sessions[userID], msg)
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}
	s.sessions[userID] = history
}

// History returns a copy of the user's current window.
func (s *Store) History(userID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.sessions[userID]
	out := make([]models.Message, len(history))
	copy(out, history)
	return out
}

// Reset drops the user's session.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Chat runs completions over per-user session windows.
type Chat struct {
	store *Store
	model models.Interface
}

func NewChat(store *Store, model models.Interface) *Chat {
	return &Chat{store: store, model: model}
}

// Send appends the user turn, completes over the whole window, appends and
// returns the assistant turn. On completion failure the user turn stays in
// the window; the next message retries over it.
func (c *Chat) Send(ctx context.Context, userID, text string) (string, error) {
	c.store.Append(userID, models.Message{Role: models.RoleUser, Content: text})

	reply, err := c.model.Chat(ctx, c.store.History(userID))
	if err != nil {
		return "", fmt.Errorf("session %s: %w", userID, err)
	}

	c.store.Append(userID, models.Message{Role: models.RoleAssistant, Content: reply})
	return reply, nil
}
