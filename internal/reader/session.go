package reader

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// Status is the loading state a session exposes for polling.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Session pairs one parser with the latest lifecycle state so an HTTP
// client can poll instead of receiving callbacks. It registers itself as
// the parser's listener.
type Session struct {
	mu sync.Mutex

	ID     string
	parser *Parser

	status     Status
	progress   float64
	createdAt  time.Time
	lastActive time.Time
}

func NewSession(parser *Parser) *Session {
	now := time.Now()
	s := &Session{
		ID:         sessionID(parser.Name(), now),
		parser:     parser,
		status:     StatusLoading,
		createdAt:  now,
		lastActive: now,
	}
	parser.AddListener(s)
	return s
}

// Parser returns the facade this session wraps.
func (s *Session) Parser() *Parser {
	return s.parser
}

// Touch marks the session as recently used, deferring TTL eviction.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) OnLoadingStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusLoading
	s.progress = 0
}

func (s *Session) OnLoadingProgress(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = v
}

func (s *Session) OnLoadingSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusReady
	s.progress = 1
}

func (s *Session) OnLoadingFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
}

// Snapshot is a JSON-safe copy of the session state.
type Snapshot struct {
	ID          string  `json:"session_id"`
	Document    string  `json:"document"`
	Status      Status  `json:"status"`
	Progress    float64 `json:"progress"`
	Completion  float64 `json:"completion"`
	CurrentWord string  `json:"current_word"`
	AtStart     bool    `json:"at_start"`
	AtEnd       bool    `json:"at_end"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	status, progress := s.status, s.progress
	s.mu.Unlock()

	return Snapshot{
		ID:          s.ID,
		Document:    s.parser.Name(),
		Status:      status,
		Progress:    progress,
		Completion:  s.parser.Completion(),
		CurrentWord: s.parser.CurrentWord(),
		AtStart:     s.parser.IsAtStart(),
		AtEnd:       s.parser.IsAtEnd(),
	}
}

// SessionStore is a thread-safe session registry with TTL eviction.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	onEvict  func(*Session)
}

// NewSessionStore creates a registry. onEvict, if non-nil, runs for each
// session dropped by Cleanup so the caller can save progress and release
// the loader.
func NewSessionStore(ttl time.Duration, onEvict func(*Session)) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		onEvict:  onEvict,
	}
}

func (s *SessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *SessionStore) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Cleanup evicts sessions idle for longer than the TTL.
func (s *SessionStore) Cleanup() {
	s.mu.Lock()
	now := time.Now()
	var evicted []*Session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastActive)
		sess.mu.Unlock()
		if idle > s.ttl {
			evicted = append(evicted, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		if s.onEvict != nil {
			s.onEvict(sess)
		}
	}
}

func sessionID(name string, t time.Time) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s-%d", name, t.UnixNano()))
	return fmt.Sprintf("%x", h[:])[:20]
}
