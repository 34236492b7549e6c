package service

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ticker_go/internal/domain"
)

// Notices forwards advisory messages to the user and reports each missing
// secret at most once per process.
type Notices struct {
	mu       sync.Mutex
	seen     map[string]bool
	notifier domain.Notifier
}

// NewNotices wraps notifier. A nil notifier only logs.
func NewNotices(notifier domain.Notifier) *Notices {
	return &Notices{seen: make(map[string]bool), notifier: notifier}
}

// Notify logs msg and forwards it.
func (n *Notices) Notify(msg string) {
	slog.Info("Notice", slog.String("message", msg))
	if n.notifier != nil {
		n.notifier.Notify(msg)
	}
}

// MissingSecret reports that the secret named by the settings could not be
// resolved. Blank names are ignored.
func (n *Notices) MissingSecret(provider, secretName string) {
	name := strings.TrimSpace(secretName)
	if name == "" {
		return
	}
	key := provider + ":" + name

	n.mu.Lock()
	if n.seen[key] {
		n.mu.Unlock()
		return
	}
	n.seen[key] = true
	n.mu.Unlock()

	n.Notify(fmt.Sprintf("%s secret %q not found. Re-select it in Settings.", provider, name))
}
