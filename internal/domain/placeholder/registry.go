// Package placeholder implements the placeholder registry and the text
// expansion engine.
//
// A placeholder is written {identifier} or {identifier|params}. Plugins
// register a Processor per identifier; SetPlaceholders replaces every token
// whose identifier is registered and leaves the rest of the text untouched.
package placeholder

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/okian/papi/internal/domain/player"
	"github.com/okian/papi/pkg/logger"
	"github.com/okian/papi/pkg/metrics"
)

// Pattern matches a single placeholder token.
const Pattern = `[{]([^{}]+)[}]`

// Processor renders a placeholder for a player. p is nil when text is
// parsed without a player; processors that need one return ErrNoPlayer.
type Processor func(p *player.Player, params string) (string, error)

type entry struct {
	owner     string
	processor Processor
}

// Registry maps identifiers to processors. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string

	pattern *regexp.Regexp
	logger  logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]entry),
		pattern: regexp.MustCompile(Pattern),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a placeholder owned by owner. When identifier is already
// taken the placeholder is registered as "owner:identifier" instead. It
// reports false when that fallback is taken too, or when the identifier or
// processor is unusable.
func (r *Registry) Register(owner, identifier string, processor Processor) bool {
	_, ok := r.RegisterAs(owner, identifier, processor)
	return ok
}

// RegisterAs is Register that also returns the identifier the placeholder
// ended up under, which is "owner:identifier" after a fallback.
func (r *Registry) RegisterAs(owner, identifier string, processor Processor) (string, bool) {
	ctx := context.Background()
	if processor == nil || !validIdentifier(identifier) {
		r.logger.Warn(ctx, "refusing invalid placeholder",
			logger.String("owner", owner),
			logger.String("identifier", identifier),
		)
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.entries[identifier]; taken {
		identifier = owner + ":" + identifier
	}
	if _, taken := r.entries[identifier]; taken {
		r.logger.Warn(ctx, fmt.Sprintf("Plugin '%s' trying to register a duplicate placeholder: %s", owner, identifier))
		metrics.RecordPlaceholderDuplicate()
		return "", false
	}

	r.entries[identifier] = entry{owner: owner, processor: processor}
	r.order = append(r.order, identifier)
	metrics.UpdatePlaceholdersRegistered(len(r.order))
	return identifier, true
}

// Unregister removes identifier if owner registered it. It reports whether
// anything was removed.
func (r *Registry) Unregister(owner, identifier string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[identifier]
	if !ok || e.owner != owner {
		return false
	}
	delete(r.entries, identifier)
	for i, id := range r.order {
		if id == identifier {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	metrics.UpdatePlaceholdersRegistered(len(r.order))
	return true
}

// UnregisterOwner removes every placeholder registered by owner and
// returns how many were removed.
func (r *Registry) UnregisterOwner(owner string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	removed := 0
	for _, id := range r.order {
		if r.entries[id].owner == owner {
			delete(r.entries, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	metrics.UpdatePlaceholdersRegistered(len(r.order))
	return removed
}

// IsRegistered reports whether identifier is registered.
func (r *Registry) IsRegistered(identifier string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[identifier]
	return ok
}

// Identifiers returns registered identifiers in registration order.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered identifiers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Pattern returns the token regular expression.
func (r *Registry) Pattern() string { return r.pattern.String() }

// ContainsPlaceholders reports whether text contains any token, registered
// or not.
func (r *Registry) ContainsPlaceholders(text string) bool {
	return r.pattern.MatchString(text)
}

func (r *Registry) lookup(identifier string) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[identifier]
	return e.processor, ok
}

func validIdentifier(identifier string) bool {
	return identifier != "" && !strings.ContainsAny(identifier, "{}|")
}
