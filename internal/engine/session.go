package engine

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
)

// SessionPhase tracks the bootstrap state machine. Failed is terminal:
// the engine never retries authentication on its own.
type SessionPhase int

const (
	PhaseInit SessionPhase = iota
	PhaseAuthenticating
	PhaseAuthenticated
	PhaseFailed
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the opaque bearer credential produced by one bootstrap.
// It is read-only for the rest of the process.
type Session struct {
	Token string
	UID   string
}

// SessionStore is the injected durable side-store for the credential.
// The engine writes through on every successful bootstrap and never
// reads it back itself.
type SessionStore interface {
	Load() (token, uid string, err error)
	Save(token, uid string) error
}

// FileSessionStore keeps the session in a small JSON file.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

type storedSession struct {
	AccessToken string `json:"access_token"`
	UID         string `json:"uid"`
}

func (s *FileSessionStore) Load() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to read session file: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return "", "", fmt.Errorf("failed to parse session file: %w", err)
	}

	return stored.AccessToken, stored.UID, nil
}

func (s *FileSessionStore) Save(token, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(storedSession{AccessToken: token, UID: uid})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// MemorySessionStore holds the session in process memory only.
type MemorySessionStore struct {
	mu    sync.Mutex
	token string
	uid   string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.uid, nil
}

func (s *MemorySessionStore) Save(token, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.uid = uid
	return nil
}
