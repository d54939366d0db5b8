package core

import "pkt.systems/trove/schema"

// Workspace aggregates the document cache, the recent-files ledger and the
// theme selection. It is locked independently of the TabSwitcher.
type Workspace struct {
	cache  *DocumentCache
	recent *RecentFiles
	theme  schema.ThemeName
	// onDisk holds the title a renamed tab's file still uses until a save
	// writes the new file.
	onDisk map[schema.TabID]schema.Title
}

// NewWorkspace returns a workspace seeded with recent entries and theme.
func NewWorkspace(recent []schema.RecentFile, theme schema.ThemeName) *Workspace {
	return &Workspace{
		cache:  NewDocumentCache(),
		recent: NewRecentFiles(recent),
		theme:  theme,
		onDisk: make(map[schema.TabID]schema.Title),
	}
}

// diskTitle returns the title whose file currently backs id.
func (w *Workspace) diskTitle(id schema.TabID, current schema.Title) schema.Title {
	if old, ok := w.onDisk[id]; ok {
		return old
	}
	return current
}

// markRenamed records the on-disk title of id unless one is already pending.
func (w *Workspace) markRenamed(id schema.TabID, old schema.Title) {
	if _, ok := w.onDisk[id]; !ok {
		w.onDisk[id] = old
	}
}

func (w *Workspace) clearRenamed(id schema.TabID) {
	delete(w.onDisk, id)
}

// forget drops everything the workspace holds for id.
func (w *Workspace) forget(id schema.TabID, dropRecent bool) {
	w.cache.Remove(id)
	delete(w.onDisk, id)
	if dropRecent {
		w.recent.Remove(id)
	}
}
