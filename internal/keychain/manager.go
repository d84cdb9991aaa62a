// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides thread-safe OS keychain access for shield.
// It stores the project token so it does not have to live in a config file
// or shell profile. macOS Keychain and Windows Credential Manager are
// supported; other platforms report the keychain as unavailable.
package keychain

import (
	"errors"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "shield"

// KeyProjectToken is the keychain entry holding the project token.
const KeyProjectToken = "project_token"

// ErrNoToken is returned when no token is stored.
var ErrNoToken = errors.New("no project token in keychain")

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}

	return &Manager{
		ring: ring,
	}, nil
}

// newWithBackend wraps an arbitrary backend; used by tests.
func newWithBackend(b keychainBackend) *Manager {
	return &Manager{backend: b}
}

// GetManager returns the global keychain manager instance.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		globalManager = nil
		return nil, globalError
	}

	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		return nil, errors.New("secure storage not supported on this OS (macOS/Windows only)")
	}

	var allowedBackends []keyring.BackendType
	if runtime.GOOS == "darwin" {
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	} else {
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
	}
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	return keyring.Open(cfg)
}

// SaveProjectToken stores the project token.
// This method is thread-safe.
func (m *Manager) SaveProjectToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty project token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(KeyProjectToken, token)
	}
	return m.ring.Set(keyring.Item{Key: KeyProjectToken, Data: []byte(token)})
}

// LoadProjectToken retrieves the project token.
// This method is thread-safe.
func (m *Manager) LoadProjectToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var token string
	if m.backend != nil {
		v, err := m.backend.Get(KeyProjectToken)
		if err != nil {
			return "", err
		}
		token = v
	} else {
		it, err := m.ring.Get(KeyProjectToken)
		if err != nil {
			if errors.Is(err, keyring.ErrKeyNotFound) {
				return "", ErrNoToken
			}
			return "", err
		}
		token = string(it.Data)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// ClearProjectToken removes the stored token. Missing entries are not an error.
// This method is thread-safe.
func (m *Manager) ClearProjectToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Delete(KeyProjectToken)
	}
	if err := m.ring.Remove(KeyProjectToken); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
