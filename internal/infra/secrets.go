package infra

import (
	"strings"
	"sync"
)

// SecretStore resolves secret names referenced by settings to their values.
// Names are case-insensitive; "-" and "_" are interchangeable so that
// TICKER_SECRET_CURRENTS_KEY matches "currents-key".
type SecretStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewSecretStore copies the configured secrets.
func NewSecretStore(secrets map[string]string) *SecretStore {
	s := &SecretStore{secrets: make(map[string]string, len(secrets))}
	for name, value := range secrets {
		s.secrets[secretKey(name)] = value
	}
	return s
}

// Secret returns the trimmed value for name, or "" when unknown.
func (s *SecretStore) Secret(name string) string {
	key := secretKey(name)
	if key == "" {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.secrets[key])
}

func secretKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}
