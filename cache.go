package xsd

import (
	"log/slog"
	"strings"
	"sync"
)

// defaultCacheSoftCap is the default soft cap each Cache enforces before
// evicting its oldest half. Each of this package's five caches uses this
// default unless a pipeline overrides it.
const defaultCacheSoftCap = 10000

// Cache is a soft-capped, insertion-ordered memoization table. On overflow
// the oldest half of entries (by insertion order) is evicted — a simple
// LRU-by-insertion, not a true least-recently-used policy.
type Cache struct {
	mu      sync.Mutex
	softCap int
	order   []string
	entries map[string]any

	hits      int
	misses    int
	evictions int
}

// CacheStatsEntry reports one cache's hit/miss/eviction counters and its
// current size, surfaced through Engine.CacheStats.
type CacheStatsEntry struct {
	Hits      int
	Misses    int
	Evictions int
	Size      int
}

// NewCache returns an empty cache with the given soft cap. softCap <= 0
// uses defaultCacheSoftCap.
func NewCache(softCap int) *Cache {
	if softCap <= 0 {
		softCap = defaultCacheSoftCap
	}
	return &Cache{
		softCap: softCap,
		entries: make(map[string]any),
	}
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Stats returns a snapshot of this cache's counters.
func (c *Cache) Stats() CacheStatsEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStatsEntry{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Size: len(c.entries)}
}

// Set stores value under key, evicting the oldest half of entries (by
// insertion order) if the soft cap is now exceeded. Re-setting an existing
// key does not move it within the insertion order.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value
	if len(c.order) > c.softCap {
		c.evictOldestHalf()
	}
}

func (c *Cache) evictOldestHalf() {
	cut := len(c.order) / 2
	for _, k := range c.order[:cut] {
		delete(c.entries, k)
	}
	c.evictions += cut
	remaining := make([]string, len(c.order)-cut)
	copy(remaining, c.order[cut:])
	c.order = remaining
	slog.Debug("cache soft cap exceeded, evicted oldest half", "evicted", cut, "remaining", len(remaining))
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.entries = make(map[string]any)
}

// elementDefKey builds the canonical key for the element-definition cache:
// "element::ancestor1|ancestor2|…" (bottom-up hierarchy order preserved).
func elementDefKey(element string, hierarchy []string) string {
	return element + "::" + strings.Join(hierarchy, "|")
}

// attrsKey builds the canonical key for the attribute-list cache:
// "attrs:element:ancestor1>ancestor2>…".
func attrsKey(element string, hierarchy []string) string {
	return "attrs:" + element + ":" + strings.Join(hierarchy, ">")
}

// childrenKey builds the canonical key for the possible-children cache:
// "children:element:ancestors:prev".
func childrenKey(element string, hierarchy []string, previousSibling string) string {
	return "children:" + element + ":" + strings.Join(hierarchy, "|") + ":" + previousSibling
}

// searchKey builds an internal key for the resolver's top-down search
// memoization: the declaration it is currently descending from, identified
// by its nodeIdentity string, plus the remaining top-down path still to
// match.
func searchKey(fromName string, remainingPath []string) string {
	return fromName + ">" + strings.Join(remainingPath, ">")
}

// hierarchyValidationKey builds an internal key recording whether a given
// level's top-down verification has already failed,
// letting the resolver skip recomputing a known-dead level.
func hierarchyValidationKey(element string, hierarchy []string) string {
	return element + "::" + strings.Join(hierarchy, "|")
}

// pipelineCaches bundles the five caches a single schema's pipeline owns:
// two caches (elementSearch, hierarchyValidation) back the resolver's own
// memoization, the other three answer public queries directly.
type pipelineCaches struct {
	elementDef          *Cache
	attrs               *Cache
	children            *Cache
	elementSearch       *Cache
	hierarchyValidation *Cache
}

func newPipelineCaches(softCap int) *pipelineCaches {
	return &pipelineCaches{
		elementDef:          NewCache(softCap),
		attrs:               NewCache(softCap),
		children:            NewCache(softCap),
		elementSearch:       NewCache(softCap),
		hierarchyValidation: NewCache(softCap),
	}
}

// stats reports each named cache's counters, for Engine.CacheStats.
func (pc *pipelineCaches) stats() map[string]CacheStatsEntry {
	return map[string]CacheStatsEntry{
		"elementDef":          pc.elementDef.Stats(),
		"attrs":               pc.attrs.Stats(),
		"children":            pc.children.Stats(),
		"elementSearch":       pc.elementSearch.Stats(),
		"hierarchyValidation": pc.hierarchyValidation.Stats(),
	}
}

func (pc *pipelineCaches) clear() {
	pc.elementDef.Clear()
	pc.attrs.Clear()
	pc.children.Clear()
	pc.elementSearch.Clear()
	pc.hierarchyValidation.Clear()
}
