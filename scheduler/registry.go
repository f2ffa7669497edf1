package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

type registryEntry struct {
	id   cron.EntryID
	spec string
	args string
}

// Registry keeps exactly one live cron entry per name. Upserting with an
// unchanged spec and bound arguments is a no-op; any change replaces the
// prior entry under the same name.
type Registry struct {
	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]registryEntry
}

func NewRegistry() *Registry {
	return &Registry{
		cron:    cron.New(),
		entries: make(map[string]registryEntry),
	}
}

func (r *Registry) Upsert(name, spec, args string, job func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		if existing.spec == spec && existing.args == args {
			return nil
		}
		r.cron.Remove(existing.id)
		delete(r.entries, name)
	}

	id, err := r.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("registry: invalid spec %q for %s: %w", spec, name, err)
	}
	r.entries[name] = registryEntry{id: id, spec: spec, args: args}
	return nil
}

// Len reports the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Spec returns the live cron spec for name, if any.
func (r *Registry) Spec(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	return entry.spec, ok
}

func (r *Registry) Start() { r.cron.Start() }
func (r *Registry) Stop()  { r.cron.Stop() }
