// Package recovery holds the pluggable strategies the dispatcher consults
// after an error has been reported.
package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// Strategy remediates one category of error.
type Strategy interface {
	// CanRecover reports whether this strategy applies to err.
	CanRecover(err apperr.Error) bool

	// Recover attempts remediation. True means the caller may retry.
	Recover(ctx context.Context, err apperr.Error, scope apperr.Scope) bool

	// MaxRetries and RetryDelay are hints for the retry wrapper.
	MaxRetries() int
	RetryDelay() time.Duration
}

// Entry is a named strategy as stored in the registry.
type Entry struct {
	Name     string
	Strategy Strategy
}

// Registry keeps strategies in first-registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds s under name. Re-registering a name replaces the strategy
// but keeps its original position.
func (r *Registry) Register(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[name]; ok {
		r.entries[i].Strategy = s
		return
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Strategy: s})
}

// Get returns the strategy registered under name.
func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].Strategy, true
}

// Entries returns a copy of the registry in iteration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Defaults holds the collaborators and pacing used by DefaultRegistry.
type Defaults struct {
	Refresher       SessionRefresher
	Redirector      LoginRedirector
	NetworkBackoff  Backoff
	DatabaseBackoff Backoff
}

// DefaultRegistry builds the network, auth, cache and database strategies
// in that order. Zero backoffs fall back to NetworkBackoff and
// DatabaseBackoff. Offline queue errors have no strategy.
func DefaultRegistry(d Defaults) *Registry {
	if d.NetworkBackoff.Initial <= 0 {
		d.NetworkBackoff = NetworkBackoff
	}
	if d.DatabaseBackoff.Initial <= 0 {
		d.DatabaseBackoff = DatabaseBackoff
	}

	r := NewRegistry()
	r.Register("network", NewNetworkStrategy(d.NetworkBackoff))
	r.Register("auth", NewAuthStrategy(d.Refresher, d.Redirector))
	r.Register("cache", NewCacheStrategy())
	r.Register("database", NewDatabaseStrategy(d.DatabaseBackoff))
	return r
}
