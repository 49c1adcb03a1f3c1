// Package cache implements the naive in-memory response cache of the API client.
//
// Entries are keyed by verb and by the SHA256 checksum of the request descriptor.
// They never expire, are never evicted and are not invalidated by mutations:
// callers needing fresh data bypass the cache per request.
package cache

import (
	"sync"

	"github.com/st-keller/omekas-client/request"
	"github.com/st-keller/omekas-client/transport"
)

// Verb selects the per-method store.
type Verb string

const (
	VerbGet   Verb = "get"
	VerbPatch Verb = "patch"
)

// Cache maps verb -> checksum -> response.
type Cache struct {
	mu sync.RWMutex

	// entries: verb -> checksum -> entry
	entries map[Verb]map[string]*entry
}

type entry struct {
	descriptor request.Descriptor
	response   *transport.Response
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: map[Verb]map[string]*entry{
			VerbGet:   make(map[string]*entry),
			VerbPatch: make(map[string]*entry),
		},
	}
}

// Check returns the stored response for the descriptor, if any.
func (c *Cache) Check(verb Verb, d request.Descriptor) (*transport.Response, bool) {
	key := d.Checksum()

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[verb][key]
	if !ok {
		return nil, false
	}
	return e.response, true
}

// Store records a response. Only GET responses are kept; a store for any
// other verb is ignored so mutations can never be served from the cache.
// Concurrent stores of the same key are last-writer-wins.
func (c *Cache) Store(verb Verb, d request.Descriptor, resp *transport.Response) bool {
	if verb != VerbGet || resp == nil {
		return false
	}
	key := d.Checksum()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[verb][key] = &entry{
		descriptor: request.New(d.Path, d.Params),
		response:   resp,
	}
	return true
}

// Len returns the number of entries stored for a verb.
func (c *Cache) Len(verb Verb) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[verb])
}

// Paths returns the request paths currently cached for a verb (for diagnostics).
func (c *Cache) Paths(verb Verb) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.entries[verb]))
	for _, e := range c.entries[verb] {
		paths = append(paths, e.descriptor.Path)
	}
	return paths
}
