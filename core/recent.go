package core

import "pkt.systems/trove/schema"

// RecentFiles is the ordered ledger of touched documents, keyed by tab id.
type RecentFiles struct {
	entries []schema.RecentFile
}

// NewRecentFiles seeds the ledger, keeping the first entry for each id.
func NewRecentFiles(entries []schema.RecentFile) *RecentFiles {
	r := &RecentFiles{}
	for _, entry := range entries {
		if entry.ID == "" || r.index(entry.ID) >= 0 {
			continue
		}
		r.entries = append(r.entries, entry)
	}
	return r
}

func (r *RecentFiles) index(id schema.TabID) int {
	for i, entry := range r.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// Upsert appends entry or updates the existing entry with the same id in place.
func (r *RecentFiles) Upsert(entry schema.RecentFile) {
	if idx := r.index(entry.ID); idx >= 0 {
		r.entries[idx] = entry
		return
	}
	r.entries = append(r.entries, entry)
}

// Get returns the entry for id.
func (r *RecentFiles) Get(id schema.TabID) (schema.RecentFile, bool) {
	if idx := r.index(id); idx >= 0 {
		return r.entries[idx], true
	}
	return schema.RecentFile{}, false
}

// Remove drops the entry for id.
func (r *RecentFiles) Remove(id schema.TabID) bool {
	idx := r.index(id)
	if idx < 0 {
		return false
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	return true
}

// List returns a copy of the ledger. It is never nil.
func (r *RecentFiles) List() []schema.RecentFile {
	return append([]schema.RecentFile{}, r.entries...)
}

// Len returns the number of entries.
func (r *RecentFiles) Len() int {
	return len(r.entries)
}
