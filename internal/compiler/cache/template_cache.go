// Package cache provides caching of parsed templates keyed by source text.
package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/internal/compiler/parser"
)

// Stats is a snapshot of cache counters
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// HitRate returns the cache hit rate as a percentage
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// store holds parsed templates keyed by source text
type store interface {
	get(source string) (*ast.Template, bool)
	add(source string, tpl *ast.Template)
	remove(source string) bool
	len() int
	purge()
}

// TemplateCache caches parsed templates by their exact source text. Templates are
// immutable, so one cached *ast.Template is shared by every caller.
//
// Thread Safety: TemplateCache is safe for concurrent use.
type TemplateCache struct {
	store   store
	options parser.Options

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a template cache. A size of zero or less keeps every template;
// a positive size bounds the cache with least-recently-used eviction.
func New(size int) *TemplateCache {
	c := &TemplateCache{options: parser.DefaultOptions()}
	if size <= 0 {
		c.store = &mapStore{entries: make(map[string]*ast.Template)}
		return c
	}

	bounded, err := lru.NewWithEvict(size, func(_, _ interface{}) {
		c.evictions.Add(1)
	})
	if err != nil {
		// Only reachable with a non-positive size
		c.store = &mapStore{entries: make(map[string]*ast.Template)}
		return c
	}
	c.store = &lruStore{cache: bounded}
	return c
}

// WithParseOptions sets the options used to parse templates on a miss.
// It must be called before the cache is shared.
func (c *TemplateCache) WithParseOptions(opts parser.Options) *TemplateCache {
	c.options = opts
	return c
}

// GetOrParse returns the cached template for source, parsing and storing it on a miss.
// Parse errors are returned and not cached.
func (c *TemplateCache) GetOrParse(source string) (*ast.Template, error) {
	tpl, _, err := c.Fetch(source)
	return tpl, err
}

// Fetch is GetOrParse that also reports whether the template came from the cache
func (c *TemplateCache) Fetch(source string) (*ast.Template, bool, error) {
	if tpl, ok := c.store.get(source); ok {
		c.hits.Add(1)
		return tpl, true, nil
	}
	c.misses.Add(1)

	tpl, err := parser.ParseTemplate(source, c.options)
	if err != nil {
		return nil, false, err
	}

	// Concurrent misses for the same source may both parse; the last one stored wins
	// and both results are equivalent.
	c.store.add(source, tpl)
	return tpl, false, nil
}

// Get retrieves a cached template without parsing
func (c *TemplateCache) Get(source string) (*ast.Template, bool) {
	tpl, ok := c.store.get(source)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return tpl, ok
}

// Remove drops a template from the cache
func (c *TemplateCache) Remove(source string) bool {
	return c.store.remove(source)
}

// Len returns the number of cached templates
func (c *TemplateCache) Len() int {
	return c.store.len()
}

// Purge clears the cache. Counters are kept.
func (c *TemplateCache) Purge() {
	c.store.purge()
}

// Stats returns a snapshot of the cache counters
func (c *TemplateCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.store.len(),
	}
}

// mapStore is the unbounded store
type mapStore struct {
	entries map[string]*ast.Template
	mu      sync.RWMutex
}

func (m *mapStore) get(source string) (*ast.Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tpl, ok := m.entries[source]
	return tpl, ok
}

func (m *mapStore) add(source string, tpl *ast.Template) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[source] = tpl
}

func (m *mapStore) remove(source string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.entries[source]
	delete(m.entries, source)
	return ok
}

func (m *mapStore) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

func (m *mapStore) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*ast.Template)
}

// lruStore is the bounded store; golang-lru does its own locking
type lruStore struct {
	cache *lru.Cache
}

func (l *lruStore) get(source string) (*ast.Template, bool) {
	value, ok := l.cache.Get(source)
	if !ok {
		return nil, false
	}
	return value.(*ast.Template), true
}

func (l *lruStore) add(source string, tpl *ast.Template) {
	l.cache.Add(source, tpl)
}

func (l *lruStore) remove(source string) bool {
	return l.cache.Remove(source)
}

func (l *lruStore) len() int {
	return l.cache.Len()
}

func (l *lruStore) purge() {
	l.cache.Purge()
}
