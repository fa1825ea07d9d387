package engine

import (
	"sync"
	"time"
)

// DomainMemory remembers which engine last succeeded for each host so the
// next fetch to that host starts with it. Entries expire after ttl.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	engine    string
	expiresAt time.Time
}

// NewDomainMemory creates a DomainMemory with the given TTL.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the remembered engine for host, or "" if none or expired.
func (dm *DomainMemory) Get(host string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	e, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, host)
		return ""
	}
	return e.engine
}

// Set records that engine succeeded for host.
func (dm *DomainMemory) Set(host, engine string) {
	if dm.ttl <= 0 {
		return
	}
	dm.mu.Lock()
	dm.entries[host] = memoryEntry{engine: engine, expiresAt: dm.now().Add(dm.ttl)}
	dm.mu.Unlock()
}

// Forget drops host's entry if it still names engine.
func (dm *DomainMemory) Forget(host, engine string) {
	dm.mu.Lock()
	if e, ok := dm.entries[host]; ok && e.engine == engine {
		delete(dm.entries, host)
	}
	dm.mu.Unlock()
}

// Len reports how many hosts have a remembered engine.
func (dm *DomainMemory) Len() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}
