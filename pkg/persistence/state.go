package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/modbee/modbee-dash/pkg/snapshot"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ControllerState contains the persisted state of a controller.
type ControllerState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// WiFi is the network the controller joins at boot. Nil means the
	// controller starts its own access point.
	WiFi *WiFiConfig `json:"wifi,omitempty"`

	// Calibration holds the coefficients last written by a client.
	Calibration *snapshot.Calibration `json:"calibration,omitempty"`
}

// WiFiConfig is a set of station credentials.
type WiFiConfig struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// ControllerStateStore manages persistence of controller state to a JSON file.
type ControllerStateStore struct {
	mu   sync.Mutex
	path string
}

// NewControllerStateStore creates a new controller state store.
func NewControllerStateStore(path string) *ControllerStateStore {
	return &ControllerStateStore{path: path}
}

// Path returns the state file path.
func (s *ControllerStateStore) Path() string {
	return s.path
}

// Save persists the controller state to disk. SavedAt is refreshed.
func (s *ControllerStateStore) Save(state *ControllerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Replace atomically.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the controller state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *ControllerStateStore) Load() (*ControllerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ControllerState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *ControllerStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
