package core

import "pkt.systems/trove/schema"

// TabSwitcher is the ordered set of open tabs plus the active pointer.
// Insertion order is the display and cycle order.
//
// A TabSwitcher is not safe for concurrent use; the service guards it with
// its own mutex. Every mutation keeps the active pointer on a present tab
// whenever the collection is non-empty.
type TabSwitcher struct {
	tabs   []schema.Tab
	active schema.TabID
}

// NewTabSwitcher returns an empty switcher.
func NewTabSwitcher() *TabSwitcher {
	return &TabSwitcher{}
}

// Len returns the number of open tabs.
func (s *TabSwitcher) Len() int {
	return len(s.tabs)
}

func (s *TabSwitcher) index(id schema.TabID) int {
	for i, tab := range s.tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is an open tab.
func (s *TabSwitcher) Contains(id schema.TabID) bool {
	return s.index(id) >= 0
}

// Get returns the tab with the given id.
func (s *TabSwitcher) Get(id schema.TabID) (schema.Tab, bool) {
	if idx := s.index(id); idx >= 0 {
		return s.tabs[idx], true
	}
	return schema.Tab{}, false
}

// FindTitle returns the first tab with exactly the given title.
func (s *TabSwitcher) FindTitle(title schema.Title) (schema.Tab, bool) {
	for _, tab := range s.tabs {
		if tab.Title == title {
			return tab, true
		}
	}
	return schema.Tab{}, false
}

// TitleTaken reports whether a tab other than except already uses title.
func (s *TabSwitcher) TitleTaken(title schema.Title, except schema.TabID) bool {
	for _, tab := range s.tabs {
		if tab.ID != except && tab.Title == title {
			return true
		}
	}
	return false
}

// Tabs returns a copy of the tabs in order.
func (s *TabSwitcher) Tabs() []schema.Tab {
	return append([]schema.Tab(nil), s.tabs...)
}

// ActiveID returns the active tab id, empty when no tabs are open.
func (s *TabSwitcher) ActiveID() schema.TabID {
	return s.active
}

// Active returns the active tab.
func (s *TabSwitcher) Active() (schema.Tab, bool) {
	if s.active == "" {
		return schema.Tab{}, false
	}
	return s.Get(s.active)
}

// InsertOrReplace appends a new tab or updates an existing one in place.
// The first tab inserted into an empty switcher becomes active.
func (s *TabSwitcher) InsertOrReplace(tab schema.Tab) {
	if idx := s.index(tab.ID); idx >= 0 {
		s.tabs[idx] = tab
		return
	}
	s.tabs = append(s.tabs, tab)
	if s.active == "" {
		s.active = tab.ID
	}
}

// SetTitle renames the tab in place.
func (s *TabSwitcher) SetTitle(id schema.TabID, title schema.Title) bool {
	idx := s.index(id)
	if idx < 0 {
		return false
	}
	s.tabs[idx].Title = title
	return true
}

// Remove drops the tab and returns the index it occupied. Removing the
// active tab activates its replacement (see NextAfterRemoval).
func (s *TabSwitcher) Remove(id schema.TabID) (int, bool) {
	idx := s.index(id)
	if idx < 0 {
		return -1, false
	}
	s.tabs = append(s.tabs[:idx], s.tabs[idx+1:]...)
	if s.active == id {
		s.active = ""
		if next, ok := s.NextAfterRemoval(idx); ok {
			s.active = next.ID
		}
	}
	return idx, true
}

// SetActive activates id. Unknown ids are rejected and leave the active tab unchanged.
func (s *TabSwitcher) SetActive(id schema.TabID) error {
	if !s.Contains(id) {
		return schema.ErrTabNotFound
	}
	s.active = id
	return nil
}

// NextAfterRemoval picks the tab that now occupies removed, falling back to
// its predecessor when the removed tab was last.
func (s *TabSwitcher) NextAfterRemoval(removed int) (schema.Tab, bool) {
	if len(s.tabs) == 0 || removed < 0 {
		return schema.Tab{}, false
	}
	if removed < len(s.tabs) {
		return s.tabs[removed], true
	}
	return s.tabs[len(s.tabs)-1], true
}

// CycleForward activates the tab after the active one, wrapping to the first.
func (s *TabSwitcher) CycleForward() (schema.Tab, error) {
	return s.cycle(1)
}

// CycleBackward activates the tab before the active one, wrapping to the last.
func (s *TabSwitcher) CycleBackward() (schema.Tab, error) {
	return s.cycle(-1)
}

func (s *TabSwitcher) cycle(step int) (schema.Tab, error) {
	idx := s.index(s.active)
	if s.active == "" || idx < 0 {
		return schema.Tab{}, schema.ErrNoActiveTab
	}
	n := len(s.tabs)
	next := s.tabs[((idx+step)%n+n)%n]
	s.active = next.ID
	return next, nil
}

// First activates the first tab.
func (s *TabSwitcher) First() (schema.Tab, error) {
	if len(s.tabs) == 0 {
		return schema.Tab{}, schema.ErrNoTabs
	}
	s.active = s.tabs[0].ID
	return s.tabs[0], nil
}

// Last activates the last tab.
func (s *TabSwitcher) Last() (schema.Tab, error) {
	if len(s.tabs) == 0 {
		return schema.Tab{}, schema.ErrNoTabs
	}
	last := s.tabs[len(s.tabs)-1]
	s.active = last.ID
	return last, nil
}
