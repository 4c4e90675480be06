// Package media provides the media subsystem lifecycle. The collection
// only connects and closes it; file storage itself lives elsewhere.
package media

import (
	"fmt"
	"os"
)

// Manager tracks the media directory attached to a collection.
type Manager struct {
	dir       string
	connected bool
}

// NewManager creates a Manager for the given directory.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Connect ensures the media directory exists. Connect is idempotent.
func (m *Manager) Connect() error {
	if m.connected {
		return nil
	}
	if m.dir != "" {
		if err := os.MkdirAll(m.dir, 0755); err != nil {
			return fmt.Errorf("create media directory: %w", err)
		}
	}
	m.connected = true
	return nil
}

// Close releases the media subsystem. Close is idempotent.
func (m *Manager) Close() error {
	m.connected = false
	return nil
}

// Dir returns the media directory path.
func (m *Manager) Dir() string {
	return m.dir
}
