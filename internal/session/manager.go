package session

import (
	"sync"
	"time"
)

// DefaultSession is used when a request carries no session ID.
const DefaultSession = "default"

// Session holds the per-caller conversation state: which document and
// dataset were last uploaded, and the chat memory window.
type Session struct {
	ID string

	mu         sync.RWMutex
	chatFile   string
	collection string
	vizFile    string
	createdAt  time.Time
	lastSeen   time.Time

	Memory *ConversationMemory
}

// SetDocument records the active document and its vector collection.
func (s *Session) SetDocument(filename, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatFile = filename
	s.collection = collection
}

// Document returns the active document filename and collection.
func (s *Session) Document() (filename, collection string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatFile, s.collection
}

// SetDataset records the active visualization dataset.
func (s *Session) SetDataset(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vizFile = filename
}

// Dataset returns the active visualization dataset filename.
func (s *Session) Dataset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vizFile
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Manager hands out sessions keyed by caller-supplied ID. Sessions are
// created on first use and live for the process lifetime.
type Manager struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	memoryWindow int
}

// NewManager creates a session manager whose sessions keep memoryWindow
// chat turns.
func NewManager(memoryWindow int) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		memoryWindow: memoryWindow,
	}
}

// Get returns the session for id, creating it if needed. Empty ids map to
// DefaultSession.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		id = DefaultSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		now := time.Now()
		sess = &Session{
			ID:        id,
			createdAt: now,
			lastSeen:  now,
			Memory:    NewConversationMemory(m.memoryWindow),
		}
		m.sessions[id] = sess
	}
	sess.touch()
	return sess
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
