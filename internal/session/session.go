package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileState stores the view of a single file
type FileState struct {
	Cursor uint64 `json:"cursor"`
	Offset uint64 `json:"offset"`
	Mode   string `json:"mode"` // "overwrite", "insert"
	Pane   string `json:"pane"` // "hex", "ascii"
	// Size of the file when the state was taken; a different size on
	// reopen means the saved position may no longer make sense.
	Size uint64 `json:"size"`
}

// Session stores the complete editor session state
type Session struct {
	Files      map[string]FileState `json:"files"`
	ActiveFile string               `json:"active_file,omitempty"`
	LastSaved  time.Time            `json:"last_saved"`
}

// Manager handles session persistence
type Manager struct {
	mu       sync.RWMutex
	session  Session
	path     string
	dirty    bool
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

const autosaveInterval = 15 * time.Second

// NewManager creates a new session manager
func NewManager() (*Manager, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	return newManager(path, autosaveInterval), nil
}

func newManager(path string, interval time.Duration) *Manager {
	m := &Manager{
		session: Session{
			Files: make(map[string]FileState),
		},
		path:     path,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}

	// Load existing session
	m.load()

	go m.autosaveLoop(interval)
	return m
}

func sessionPath() (string, error) {
	// XDG state directory
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateDir, "hexed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return // No existing session, start fresh
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return
	}
	if session.Files == nil {
		session.Files = make(map[string]FileState)
	}
	m.session = session
}

// Save persists the session to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	m.session.LastSaved = time.Now()
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return err
	}

	m.dirty = false
	return nil
}

// ForceSave saves even if not dirty
func (m *Manager) ForceSave() error {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
	return m.Save()
}

// GetFileState returns the saved state for a file
func (m *Manager) GetFileState(absPath string) (FileState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.session.Files[absPath]
	return state, ok
}

// SetFileState updates the state for a file
func (m *Manager) SetFileState(absPath string, state FileState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.session.Files[absPath]; ok && old == state && m.session.ActiveFile == absPath {
		return
	}
	m.session.Files[absPath] = state
	m.session.ActiveFile = absPath
	m.dirty = true
}

// GetActiveFile returns the last active file
func (m *Manager) GetActiveFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.ActiveFile
}

func (m *Manager) autosaveLoop(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Save()
		case <-m.stopChan:
			return
		}
	}
}

// Stop stops the autosave loop and saves final state
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.stopChan) })
	<-m.done
	return m.ForceSave()
}
