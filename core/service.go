package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/trove/internal/logx"
	"pkt.systems/trove/internal/persist"
	"pkt.systems/trove/schema"
)

// service implements the workspace coordinator.
//
// Lock order is switchMu, then tabsMu, then wsMu. Values needed after a
// locked region are copied out before unlocking, and no disk I/O happens
// while tabsMu or wsMu is held.
type service struct {
	cfg    schema.ServiceConfig
	docs   *persist.Documents
	store  *persist.Store
	sink   EventSink
	logger pslog.Logger

	// switchMu serializes switch, cycle, first and last against each other.
	switchMu sync.Mutex
	tabsMu   sync.Mutex
	tabs     *TabSwitcher
	wsMu     sync.Mutex
	ws       *Workspace
	// persistMu orders snapshot writes so an older snapshot never lands last.
	persistMu sync.Mutex
}

// NewService constructs the workspace coordinator and restores the persisted
// snapshot. The returned workspace always has at least one open tab.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	docs := deps.Documents
	if docs == nil {
		docs, err = persist.NewDocuments(cfg.TroveDir, logger)
		if err != nil {
			return nil, err
		}
	}
	store := deps.Store
	if store == nil && cfg.UserDataDir != "" {
		store, err = persist.NewStoreWithLogger(cfg.UserDataDir, logger)
		if err != nil {
			return nil, err
		}
	}
	s := &service{
		cfg:    cfg,
		docs:   docs,
		store:  store,
		sink:   deps.EventSink,
		logger: logger,
	}
	if err := s.restore(logger); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *service) restore(log pslog.Logger) error {
	var snapshot persist.UserDataSnapshot
	found := false
	if s.store != nil {
		loaded, ok, err := s.store.Load()
		if err != nil {
			log.Warn("workspace state load failed", "err", err)
		} else {
			snapshot, found = loaded, ok
		}
	}
	tabs := NewTabSwitcher()
	for _, tab := range snapshot.ActiveTabs {
		if tab.ID == "" || tabs.Contains(tab.ID) {
			continue
		}
		title, err := schema.NormalizeTitle(tab.Title)
		if err != nil {
			log.Warn("workspace restore skipped tab", "tab", tab.ID, "err", err)
			continue
		}
		tabs.InsertOrReplace(schema.Tab{ID: tab.ID, Title: title})
	}
	if snapshot.ActiveTabID != "" {
		if err := tabs.SetActive(snapshot.ActiveTabID); err != nil {
			log.Warn("workspace restore active tab missing", "tab", snapshot.ActiveTabID, "fallback", tabs.ActiveID())
		}
	}
	theme := snapshot.CurrentTheme
	if theme == "" {
		theme = s.cfg.DefaultTheme
	}
	s.tabs = tabs
	s.ws = NewWorkspace(snapshot.RecentFiles, theme)
	s.restorePending(log, snapshot.PendingRenames)
	if tabs.Len() == 0 {
		if _, err := s.createTab(log); err != nil {
			return err
		}
	}
	s.loadActive(log)
	view := s.view()
	log.Info("workspace restored", "snapshot", found, "tabs", len(view.Tabs), "active", view.ActiveTab)
	s.emit(schema.EventRestored, view)
	return nil
}

// restorePending reinstates renames that were not saved before the last exit.
// An entry whose old file is gone was already written through.
func (s *service) restorePending(log pslog.Logger, pending map[schema.TabID]schema.Title) {
	for id, raw := range pending {
		tab, ok := s.tabs.Get(id)
		if !ok {
			continue
		}
		old, err := schema.NormalizeTitle(raw)
		if err != nil || schema.SanitizeTitle(old) == schema.SanitizeTitle(tab.Title) {
			continue
		}
		if !s.docs.Exists(old) {
			log.Debug("workspace pending rename already applied", "tab", id, "from", old)
			continue
		}
		s.ws.markRenamed(id, old)
	}
}

func (s *service) OpenTab(ctx context.Context, req schema.OpenTabRequest) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, req.ID)
	requested := schema.Title(strings.TrimSpace(string(req.Title)))

	id := req.ID
	s.tabsMu.Lock()
	if id == "" && requested != "" {
		if existing, ok := s.tabs.FindTitle(requested); ok {
			id = existing.ID
		}
	}
	existing, known := s.tabs.Get(id)
	s.tabsMu.Unlock()

	if known && requested == "" {
		requested = existing.Title
	}
	title, err := schema.NormalizeTitle(requested)
	if err != nil {
		log.Warn("workspace tab open rejected", "err", err)
		return schema.WorkspaceView{}, err
	}
	if id == "" {
		id = newTabID()
	}
	if req.ID == "" {
		log = log.With("tab", id)
	}
	log = logx.WithTitle(log, title)

	source := title
	s.wsMu.Lock()
	entry, cached := s.ws.cache.Get(id)
	if known && existing.Title == title {
		source = s.ws.diskTitle(id, title)
	}
	s.wsMu.Unlock()
	if !cached || entry.Title != title {
		contents, err := s.docs.Read(source)
		if err != nil {
			log.Warn("workspace tab open failed", "err", err)
			return schema.WorkspaceView{}, err
		}
		entry = schema.DocumentEntry{Title: title, Contents: contents}
		cached = false
	}
	path := s.docs.Path(title)

	s.tabsMu.Lock()
	s.wsMu.Lock()
	if s.titleConflictLocked(title, id) {
		s.wsMu.Unlock()
		s.tabsMu.Unlock()
		log.Warn("workspace tab open rejected", "err", schema.ErrTitleTaken)
		return schema.WorkspaceView{}, schema.ErrTitleTaken
	}
	if known && existing.Title != title {
		s.ws.clearRenamed(id)
	}
	s.tabs.InsertOrReplace(schema.Tab{ID: id, Title: title})
	_ = s.tabs.SetActive(id)
	if current, ok := s.ws.cache.Get(id); !ok || current.Title != title {
		s.ws.cache.Put(id, entry)
	}
	s.ws.recent.Upsert(schema.RecentFile{ID: id, Title: title, Path: path})
	view := s.viewLocked()
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	s.saveSnapshot(log)
	s.emit(schema.EventOpened, view)
	log.Info("workspace tab opened", "cached", cached)
	return view, nil
}

func (s *service) NewTab(ctx context.Context) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.Ctx(ctx)
	if _, err := s.createTab(log); err != nil {
		return schema.WorkspaceView{}, err
	}
	view := s.view()
	s.saveSnapshot(log)
	s.emit(schema.EventCreated, view)
	return view, nil
}

func (s *service) SaveTab(ctx context.Context, req schema.SaveTabRequest) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, req.ID)
	title, err := schema.NormalizeTitle(req.Title)
	if err != nil {
		log.Warn("workspace tab save rejected", "err", err)
		return schema.WorkspaceView{}, err
	}
	log = logx.WithTitle(log, title)

	s.tabsMu.Lock()
	s.wsMu.Lock()
	tab, ok := s.tabs.Get(req.ID)
	if !ok {
		s.wsMu.Unlock()
		s.tabsMu.Unlock()
		log.Warn("workspace tab save rejected", "err", schema.ErrTabNotFound)
		return schema.WorkspaceView{}, schema.ErrTabNotFound
	}
	if s.titleConflictLocked(title, req.ID) {
		s.wsMu.Unlock()
		s.tabsMu.Unlock()
		log.Warn("workspace tab save rejected", "err", schema.ErrTitleTaken)
		return schema.WorkspaceView{}, schema.ErrTitleTaken
	}
	onDisk := s.ws.diskTitle(req.ID, tab.Title)
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	path, err := s.docs.Replace(onDisk, title, req.Contents)

	s.tabsMu.Lock()
	s.wsMu.Lock()
	if current, ok := s.tabs.Get(req.ID); ok {
		if path != "" {
			// The new file is written even when removing the old one failed.
			s.tabs.SetTitle(req.ID, title)
			s.ws.cache.Put(req.ID, schema.DocumentEntry{Title: title, Contents: req.Contents})
			s.ws.recent.Upsert(schema.RecentFile{ID: req.ID, Title: title, Path: path})
			if err == nil {
				s.ws.clearRenamed(req.ID)
			} else {
				s.ws.markRenamed(req.ID, onDisk)
			}
		} else {
			// Nothing reached disk. Keep the edits under the current title.
			s.ws.cache.Put(req.ID, schema.DocumentEntry{Title: current.Title, Contents: req.Contents})
		}
	}
	view := s.viewLocked()
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	s.saveSnapshot(log)
	if err != nil {
		log.Warn("workspace tab save failed", "from", onDisk, "err", err)
		return schema.WorkspaceView{}, err
	}
	s.emit(schema.EventSaved, view)
	log.Info("workspace tab saved", "path", path, "bytes", len(req.Contents), "renamed", onDisk != title)
	return view, nil
}

func (s *service) CloseTab(ctx context.Context, id schema.TabID) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, id)

	s.tabsMu.Lock()
	if !s.tabs.Contains(id) {
		s.tabsMu.Unlock()
		log.Warn("workspace tab close rejected", "err", schema.ErrTabNotFound)
		return schema.WorkspaceView{}, schema.ErrTabNotFound
	}
	if s.tabs.Len() == 1 {
		s.tabsMu.Unlock()
		log.Warn("workspace tab close rejected", "err", schema.ErrLastTab)
		return schema.WorkspaceView{}, schema.ErrLastTab
	}
	s.tabs.Remove(id)
	replacement, _ := s.tabs.Active()
	s.wsMu.Lock()
	s.ws.forget(id, false)
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	s.ensureCached(log, replacement)
	view := s.view()
	s.saveSnapshot(log)
	s.emit(schema.EventClosed, view)
	log.Info("workspace tab closed", "active", view.ActiveTab)
	return view, nil
}

func (s *service) DeleteTab(ctx context.Context, id schema.TabID) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, id)

	s.tabsMu.Lock()
	tab, ok := s.tabs.Get(id)
	last := s.tabs.Len() == 1
	s.tabsMu.Unlock()
	if !ok {
		log.Warn("workspace tab delete rejected", "err", schema.ErrTabNotFound)
		return schema.WorkspaceView{}, schema.ErrTabNotFound
	}
	log = logx.WithTitle(log, tab.Title)
	if last {
		if _, err := s.createTab(log); err != nil {
			return schema.WorkspaceView{}, err
		}
	}

	s.wsMu.Lock()
	onDisk := s.ws.diskTitle(id, tab.Title)
	s.wsMu.Unlock()
	titles := []schema.Title{tab.Title}
	if onDisk != tab.Title {
		titles = append(titles, onDisk)
	}
	for _, title := range titles {
		if err := s.docs.Delete(title); err != nil {
			log.Warn("workspace tab delete failed", "err", err)
			if last {
				s.saveSnapshot(log)
			}
			return schema.WorkspaceView{}, err
		}
	}

	for {
		s.tabsMu.Lock()
		if !s.tabs.Contains(id) || s.tabs.Len() > 1 {
			s.tabs.Remove(id)
			s.wsMu.Lock()
			s.ws.forget(id, true)
			s.wsMu.Unlock()
			s.tabsMu.Unlock()
			break
		}
		s.tabsMu.Unlock()
		if _, err := s.createTab(log); err != nil {
			return schema.WorkspaceView{}, err
		}
	}

	s.loadActive(log)
	view := s.view()
	s.saveSnapshot(log)
	s.emit(schema.EventDeleted, view)
	log.Info("workspace tab deleted", "active", view.ActiveTab)
	return view, nil
}

func (s *service) SwitchTab(ctx context.Context, id schema.TabID) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, id)

	s.switchMu.Lock()
	s.tabsMu.Lock()
	err := s.tabs.SetActive(id)
	active, _ := s.tabs.Active()
	s.tabsMu.Unlock()
	s.switchMu.Unlock()

	if err != nil {
		log.Warn("workspace tab switch ignored", "err", err, "active", active.ID)
	}
	s.ensureCached(log, active)
	view := s.view()
	if err == nil {
		s.saveSnapshot(log)
	}
	s.emit(schema.EventSwitched, view)
	log.Debug("workspace tab switched", "active", view.ActiveTab)
	return view, nil
}

func (s *service) RenameTab(ctx context.Context, req schema.RenameTabRequest) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, req.ID)
	title, err := schema.NormalizeTitle(req.Title)
	if err != nil {
		log.Warn("workspace tab rename rejected", "err", err)
		return schema.WorkspaceView{}, err
	}

	s.tabsMu.Lock()
	s.wsMu.Lock()
	tab, ok := s.tabs.Get(req.ID)
	if !ok {
		s.wsMu.Unlock()
		s.tabsMu.Unlock()
		log.Warn("workspace tab rename rejected", "err", schema.ErrTabNotFound)
		return schema.WorkspaceView{}, schema.ErrTabNotFound
	}
	if s.titleConflictLocked(title, req.ID) {
		s.wsMu.Unlock()
		s.tabsMu.Unlock()
		log.Warn("workspace tab rename rejected", "err", schema.ErrTitleTaken, "title", title)
		return schema.WorkspaceView{}, schema.ErrTitleTaken
	}
	changed := tab.Title != title
	if changed {
		s.ws.markRenamed(req.ID, tab.Title)
		if schema.SanitizeTitle(s.ws.diskTitle(req.ID, title)) == schema.SanitizeTitle(title) {
			s.ws.clearRenamed(req.ID)
		}
		if entry, ok := s.ws.cache.Get(req.ID); ok {
			entry.Title = title
			s.ws.cache.Put(req.ID, entry)
		}
		s.tabs.SetTitle(req.ID, title)
	}
	view := s.viewLocked()
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	if changed {
		s.saveSnapshot(log)
		s.emit(schema.EventRenamed, view)
		log.Info("workspace tab renamed", "from", tab.Title, "to", title)
	}
	return view, nil
}

func (s *service) CycleTab(ctx context.Context) (schema.WorkspaceView, error) {
	return s.moveActive(ctx, "cycle", (*TabSwitcher).CycleForward)
}

func (s *service) CycleTabBack(ctx context.Context) (schema.WorkspaceView, error) {
	return s.moveActive(ctx, "cycle back", (*TabSwitcher).CycleBackward)
}

func (s *service) FirstTab(ctx context.Context) (schema.WorkspaceView, error) {
	return s.moveActive(ctx, "first", (*TabSwitcher).First)
}

func (s *service) LastTab(ctx context.Context) (schema.WorkspaceView, error) {
	return s.moveActive(ctx, "last", (*TabSwitcher).Last)
}

func (s *service) moveActive(ctx context.Context, op string, move func(*TabSwitcher) (schema.Tab, error)) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.Ctx(ctx)

	s.switchMu.Lock()
	s.tabsMu.Lock()
	active, err := move(s.tabs)
	s.tabsMu.Unlock()
	s.switchMu.Unlock()
	if err != nil {
		log.Warn("workspace tab "+op+" failed", "err", err)
		return schema.WorkspaceView{}, err
	}

	s.ensureCached(log, active)
	view := s.view()
	s.saveSnapshot(log)
	s.emit(schema.EventSwitched, view)
	log.Debug("workspace tab "+op, "active", active.ID)
	return view, nil
}

func (s *service) SetTheme(ctx context.Context, req schema.SetThemeRequest) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	log := logx.Ctx(ctx)
	theme, ok := schema.NormalizeThemeName(string(req.Theme))
	if !ok {
		log.Warn("workspace theme rejected", "err", schema.ErrInvalidTheme)
		return schema.WorkspaceView{}, schema.ErrInvalidTheme
	}

	s.tabsMu.Lock()
	s.wsMu.Lock()
	s.ws.theme = theme
	view := s.viewLocked()
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	s.saveSnapshot(log)
	s.emit(schema.EventTheme, view)
	log.Info("workspace theme set", "theme", theme)
	return view, nil
}

func (s *service) State(ctx context.Context) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	s.loadActive(logx.Ctx(ctx))
	return s.view(), nil
}

func (s *service) SaveState(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	return s.persistState(logx.Ctx(ctx))
}

// Close writes pending renames through to disk and serializes the snapshot.
func (s *service) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	log := logx.Ctx(ctx)

	type move struct {
		id     schema.TabID
		from   schema.Title
		to     schema.Title
		entry  schema.DocumentEntry
		cached bool
	}
	var moves []move
	s.tabsMu.Lock()
	s.wsMu.Lock()
	for id, from := range s.ws.onDisk {
		tab, ok := s.tabs.Get(id)
		if !ok {
			continue
		}
		entry, cached := s.ws.cache.Get(id)
		moves = append(moves, move{id: id, from: from, to: tab.Title, entry: entry, cached: cached})
	}
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	var errs []error
	for _, m := range moves {
		var err error
		if m.cached {
			_, err = s.docs.Replace(m.from, m.to, m.entry.Contents)
		} else {
			err = s.docs.Rename(m.from, m.to)
		}
		if err != nil {
			log.Warn("workspace pending rename failed", "tab", m.id, "from", m.from, "to", m.to, "err", err)
			errs = append(errs, err)
			continue
		}
		s.wsMu.Lock()
		if s.ws.onDisk[m.id] == m.from {
			s.ws.clearRenamed(m.id)
		}
		s.wsMu.Unlock()
	}
	if err := s.persistState(log); err != nil {
		errs = append(errs, err)
	}
	log.Info("workspace closed", "renames", len(moves))
	return errors.Join(errs...)
}

func (s *service) RefreshDocument(ctx context.Context, title schema.Title, contents string) bool {
	log := logx.WithTitle(logx.Ctx(ctx), title)

	s.tabsMu.Lock()
	s.wsMu.Lock()
	changed := false
	activeChanged := false
	file := schema.SanitizeTitle(title)
	for _, tab := range s.tabs.Tabs() {
		if schema.SanitizeTitle(s.ws.diskTitle(tab.ID, tab.Title)) != file {
			continue
		}
		entry, ok := s.ws.cache.Get(tab.ID)
		if !ok || entry.Contents == contents {
			continue
		}
		entry.Contents = contents
		s.ws.cache.Put(tab.ID, entry)
		changed = true
		if tab.ID == s.tabs.ActiveID() {
			activeChanged = true
		}
	}
	var view schema.WorkspaceView
	if activeChanged {
		view = s.viewLocked()
	}
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	if activeChanged {
		s.emit(schema.EventRefreshed, view)
	}
	if changed {
		log.Debug("workspace document refreshed", "active", activeChanged)
	}
	return changed
}

// createTab claims a fresh document, drops stale entries and activates a new
// tab for it.
func (s *service) createTab(log pslog.Logger) (schema.Tab, error) {
	var claimed []schema.Title
	var title schema.Title
	var path string
	for {
		var err error
		title, path, err = s.docs.CreateAvailable(s.cfg.DefaultTitle)
		if err != nil {
			log.Warn("workspace tab create failed", "err", err)
			s.releaseClaimed(log, claimed)
			return schema.Tab{}, err
		}
		if !s.titleInUse(title) {
			break
		}
		// A tab whose file went missing still owns this title.
		claimed = append(claimed, title)
	}
	s.releaseClaimed(log, claimed)

	tab := schema.Tab{ID: newTabID(), Title: title}
	stale := s.staleEntries(title)

	s.tabsMu.Lock()
	s.wsMu.Lock()
	s.tabs.InsertOrReplace(tab)
	_ = s.tabs.SetActive(tab.ID)
	dropped := 0
	for id, onDisk := range stale.tabs {
		current, ok := s.tabs.Get(id)
		if !ok || s.ws.diskTitle(id, current.Title) != onDisk {
			continue
		}
		s.tabs.Remove(id)
		s.ws.forget(id, false)
		dropped++
	}
	for _, id := range stale.recent {
		s.ws.recent.Remove(id)
	}
	s.ws.cache.Put(tab.ID, schema.DocumentEntry{Title: title})
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	log.Info("workspace tab created", "tab", tab.ID, "title", title, "path", path, "dropped_tabs", dropped, "dropped_recent", len(stale.recent))
	return tab, nil
}

func (s *service) releaseClaimed(log pslog.Logger, claimed []schema.Title) {
	for _, title := range claimed {
		if err := s.docs.Delete(title); err != nil {
			log.Warn("workspace claimed document release failed", "title", title, "err", err)
		}
	}
}

func (s *service) titleInUse(title schema.Title) bool {
	s.tabsMu.Lock()
	defer s.tabsMu.Unlock()
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return s.titleConflictLocked(title, "")
}

// titleConflictLocked reports whether a tab other than except owns title or
// the file title maps to. A renamed tab owns its old file until it is saved.
// Requires tabsMu and wsMu.
func (s *service) titleConflictLocked(title schema.Title, except schema.TabID) bool {
	if s.tabs.TitleTaken(title, except) {
		return true
	}
	file := schema.SanitizeTitle(title)
	for _, tab := range s.tabs.Tabs() {
		if tab.ID == except {
			continue
		}
		if schema.SanitizeTitle(tab.Title) == file || schema.SanitizeTitle(s.ws.diskTitle(tab.ID, tab.Title)) == file {
			return true
		}
	}
	return false
}

type staleSet struct {
	tabs   map[schema.TabID]schema.Title
	recent []schema.TabID
}

// staleEntries finds tabs and recent entries whose file is gone, other than
// the ones titled keep. Existence checks run outside the locks.
func (s *service) staleEntries(keep schema.Title) staleSet {
	s.tabsMu.Lock()
	s.wsMu.Lock()
	onDisk := make(map[schema.TabID]schema.Title, s.tabs.Len())
	for _, tab := range s.tabs.Tabs() {
		onDisk[tab.ID] = s.ws.diskTitle(tab.ID, tab.Title)
	}
	recent := s.ws.recent.List()
	s.wsMu.Unlock()
	s.tabsMu.Unlock()

	set := staleSet{tabs: make(map[schema.TabID]schema.Title)}
	for id, title := range onDisk {
		if title != keep && !s.docs.Exists(title) {
			set.tabs[id] = title
		}
	}
	for _, entry := range recent {
		if entry.Title != keep && !s.docs.Exists(entry.Title) {
			set.recent = append(set.recent, entry.ID)
		}
	}
	return set
}

func (s *service) loadActive(log pslog.Logger) {
	s.tabsMu.Lock()
	active, ok := s.tabs.Active()
	s.tabsMu.Unlock()
	if ok {
		s.ensureCached(log, active)
	}
}

// ensureCached populates the cache for tab from disk when it has no entry.
func (s *service) ensureCached(log pslog.Logger, tab schema.Tab) {
	if tab.ID == "" {
		return
	}
	s.wsMu.Lock()
	_, cached := s.ws.cache.Get(tab.ID)
	onDisk := s.ws.diskTitle(tab.ID, tab.Title)
	s.wsMu.Unlock()
	if cached {
		return
	}
	contents, err := s.docs.Read(onDisk)
	if err != nil {
		log.Warn("workspace document load failed", "tab", tab.ID, "err", err)
		return
	}
	s.tabsMu.Lock()
	s.wsMu.Lock()
	if current, ok := s.tabs.Get(tab.ID); ok {
		if _, cached := s.ws.cache.Get(tab.ID); !cached {
			s.ws.cache.Put(tab.ID, schema.DocumentEntry{Title: current.Title, Contents: contents})
		}
	}
	s.wsMu.Unlock()
	s.tabsMu.Unlock()
}

func (s *service) view() schema.WorkspaceView {
	s.tabsMu.Lock()
	defer s.tabsMu.Unlock()
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return s.viewLocked()
}

// viewLocked requires tabsMu and wsMu.
func (s *service) viewLocked() schema.WorkspaceView {
	view := schema.WorkspaceView{
		Tabs:        s.tabs.Tabs(),
		ActiveTab:   s.tabs.ActiveID(),
		RecentFiles: s.ws.recent.List(),
		Theme:       s.ws.theme,
	}
	if active, ok := s.tabs.Active(); ok {
		view.Active = &active
		if entry, ok := s.ws.cache.Get(active.ID); ok {
			view.Content = entry.Contents
		}
	}
	return view
}

func (s *service) snapshot() persist.UserDataSnapshot {
	s.tabsMu.Lock()
	defer s.tabsMu.Unlock()
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	snapshot := persist.UserDataSnapshot{
		ActiveTabs:   s.tabs.Tabs(),
		ActiveTabID:  s.tabs.ActiveID(),
		RecentFiles:  s.ws.recent.List(),
		CurrentTheme: s.ws.theme,
	}
	for id, old := range s.ws.onDisk {
		if !s.tabs.Contains(id) {
			continue
		}
		if snapshot.PendingRenames == nil {
			snapshot.PendingRenames = make(map[schema.TabID]schema.Title)
		}
		snapshot.PendingRenames[id] = old
	}
	return snapshot
}

// saveSnapshot persists the workspace. Failures are logged and dropped.
func (s *service) saveSnapshot(log pslog.Logger) {
	_ = s.persistState(log)
}

func (s *service) persistState(log pslog.Logger) error {
	if s.store == nil {
		return nil
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	snapshot := s.snapshot()
	if err := s.store.Save(snapshot); err != nil {
		if log != nil {
			log.Warn("workspace persist failed", "err", err)
		}
		return err
	}
	if log != nil {
		log.Trace("workspace state persisted", "tabs", len(snapshot.ActiveTabs))
	}
	return nil
}

func (s *service) emit(kind schema.EventType, view schema.WorkspaceView) {
	if s.sink == nil {
		return
	}
	s.sink.OnWorkspaceEvent(schema.WorkspaceEvent{Type: kind, View: view})
}
