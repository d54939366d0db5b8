package core

import "pkt.systems/trove/schema"

// DocumentCache maps tab ids to the last-known content of their documents.
// Entries are only dropped when their tab closes; there is no eviction.
type DocumentCache struct {
	entries map[schema.TabID]schema.DocumentEntry
}

// NewDocumentCache returns an empty cache.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{entries: make(map[schema.TabID]schema.DocumentEntry)}
}

// Get looks up the cached entry for id. It never touches disk.
func (c *DocumentCache) Get(id schema.TabID) (schema.DocumentEntry, bool) {
	entry, ok := c.entries[id]
	return entry, ok
}

// Put overwrites the entry for id.
func (c *DocumentCache) Put(id schema.TabID, entry schema.DocumentEntry) {
	c.entries[id] = entry
}

// Remove drops the entry for id.
func (c *DocumentCache) Remove(id schema.TabID) {
	delete(c.entries, id)
}

// Len returns the number of cached entries.
func (c *DocumentCache) Len() int {
	return len(c.entries)
}
