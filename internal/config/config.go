// Package config loads and holds process settings, grounded on
// cli.go/hardware_control.go's HardwareConfig pattern (os.ReadFile +
// json.Unmarshal, an Apply/Get accessor pair) but restructured per
// spec §9's "global state" design note: instead of a package-level
// HardwareConfig/ServerState singleton, Store is an explicit struct a
// caller constructs and injects, so its read-mostly snapshot is safe
// by construction rather than by convention.
package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Settings are the module options spec §6 lists as core-recognized:
// filter padding, whether montages pre-cache on setup, and whether the
// reader surfaces missing/hidden channels in listings.
type Settings struct {
	FilterPaddingSeconds float64 `json:"filterPaddingSeconds"`
	MontagesPreCache     bool    `json:"montagesPreCache"`
	ShowMissing          bool    `json:"showMissing"`
	ShowHidden           bool    `json:"showHidden"`
}

// DefaultSettings mirrors the teacher's inline zero-value-with-
// overrides struct literal for ServerState's initial field values.
func DefaultSettings() Settings {
	return Settings{
		FilterPaddingSeconds: 1.0,
		MontagesPreCache:     true,
		ShowMissing:          false,
		ShowHidden:           false,
	}
}

// Store holds the process's current Settings behind a read-mostly
// lock (spec §9: "document that init is single-entry and publishes a
// read-mostly snapshot").
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore constructs a Store seeded with initial.
func NewStore(initial Settings) *Store {
	return &Store{settings: initial}
}

// LoadFromFile reads path as JSON and returns the decoded Settings,
// mirroring cli.go's configFile load ("Loading config from %s" /
// json.Unmarshal into the config struct). It unmarshals over a fresh
// Settings{}, so fields absent from the file are left at their Go zero
// values, not at DefaultSettings(); it does not touch any Store.
func LoadFromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Apply replaces the store's current snapshot, mirroring the teacher's
// ApplyConfig.
func (s *Store) Apply(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Get returns the current snapshot, mirroring the teacher's GetConfig.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}
