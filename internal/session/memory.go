package session

import (
	"strings"
	"sync"
)

// Turn is one question/answer exchange.
type Turn struct {
	Question string
	Answer   string
}

// ConversationMemory keeps a bounded window of the most recent turns.
// Older turns fall off the front once the window is full.
type ConversationMemory struct {
	mu     sync.Mutex
	window int
	turns  []Turn
}

// NewConversationMemory creates a memory holding at most window turns.
func NewConversationMemory(window int) *ConversationMemory {
	if window <= 0 {
		window = 10
	}
	return &ConversationMemory{window: window}
}

// Add records a completed exchange, evicting the oldest if needed.
func (m *ConversationMemory) Add(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, Turn{Question: question, Answer: answer})
	if len(m.turns) > m.window {
		m.turns = m.turns[len(m.turns)-m.window:]
	}
}

// Turns returns a copy of the current window, oldest first.
func (m *ConversationMemory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Turn(nil), m.turns...)
}

// History renders the window as prompt-ready chat history.
func (m *ConversationMemory) History() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	for _, turn := range m.turns {
		b.WriteString("Human: " + turn.Question + "\n")
		b.WriteString("AI: " + turn.Answer + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clear drops all turns.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
