package core

import (
	"errors"
	"reflect"
	"testing"

	"pkt.systems/trove/schema"
)

func newABC() *TabSwitcher {
	s := NewTabSwitcher()
	s.InsertOrReplace(schema.Tab{ID: "1", Title: "A"})
	s.InsertOrReplace(schema.Tab{ID: "2", Title: "B"})
	s.InsertOrReplace(schema.Tab{ID: "3", Title: "C"})
	return s
}

func tabIDs(tabs []schema.Tab) []schema.TabID {
	ids := make([]schema.TabID, 0, len(tabs))
	for _, tab := range tabs {
		ids = append(ids, tab.ID)
	}
	return ids
}

func TestTabSwitcherFirstInsertBecomesActive(t *testing.T) {
	s := NewTabSwitcher()
	if _, ok := s.Active(); ok {
		t.Fatalf("expected no active tab")
	}
	s.InsertOrReplace(schema.Tab{ID: "1", Title: "A"})
	s.InsertOrReplace(schema.Tab{ID: "2", Title: "B"})
	if s.ActiveID() != "1" {
		t.Fatalf("expected first tab active, got %q", s.ActiveID())
	}
}

func TestTabSwitcherInsertOrReplaceKeepsPosition(t *testing.T) {
	s := newABC()
	s.InsertOrReplace(schema.Tab{ID: "1", Title: "A2"})
	want := []schema.Tab{{ID: "1", Title: "A2"}, {ID: "2", Title: "B"}, {ID: "3", Title: "C"}}
	if got := s.Tabs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("tabs mismatch:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestTabSwitcherRemoveActiveMiddlePicksSuccessor(t *testing.T) {
	s := newABC()
	if err := s.SetActive("2"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	idx, ok := s.Remove("2")
	if !ok || idx != 1 {
		t.Fatalf("expected removal at 1, got %d %v", idx, ok)
	}
	if s.ActiveID() != "3" {
		t.Fatalf("expected active 3, got %q", s.ActiveID())
	}
	if got := tabIDs(s.Tabs()); !reflect.DeepEqual(got, []schema.TabID{"1", "3"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestTabSwitcherRemoveActiveLastPicksPredecessor(t *testing.T) {
	s := newABC()
	if err := s.SetActive("3"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	s.Remove("3")
	if s.ActiveID() != "2" {
		t.Fatalf("expected active 2, got %q", s.ActiveID())
	}
}

func TestTabSwitcherRemoveInactiveKeepsActive(t *testing.T) {
	s := newABC()
	if err := s.SetActive("3"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	s.Remove("1")
	if s.ActiveID() != "3" {
		t.Fatalf("expected active 3, got %q", s.ActiveID())
	}
}

func TestTabSwitcherRemoveAllClearsActive(t *testing.T) {
	s := NewTabSwitcher()
	s.InsertOrReplace(schema.Tab{ID: "1", Title: "A"})
	s.Remove("1")
	if s.ActiveID() != "" || s.Len() != 0 {
		t.Fatalf("expected empty switcher, got active %q len %d", s.ActiveID(), s.Len())
	}
	if _, ok := s.Remove("1"); ok {
		t.Fatalf("expected second removal to miss")
	}
}

func TestTabSwitcherSetActiveRejectsUnknown(t *testing.T) {
	s := newABC()
	if err := s.SetActive("9"); !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
	if s.ActiveID() != "1" {
		t.Fatalf("expected active unchanged, got %q", s.ActiveID())
	}
}

func TestTabSwitcherCycleWraps(t *testing.T) {
	s := newABC()
	var got []schema.TabID
	for i := 0; i < 4; i++ {
		tab, err := s.CycleForward()
		if err != nil {
			t.Fatalf("cycle: %v", err)
		}
		got = append(got, tab.ID)
	}
	if want := []schema.TabID{"2", "3", "1", "2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("forward: want %v, got %v", want, got)
	}
	got = nil
	for i := 0; i < 3; i++ {
		tab, err := s.CycleBackward()
		if err != nil {
			t.Fatalf("cycle back: %v", err)
		}
		got = append(got, tab.ID)
	}
	if want := []schema.TabID{"1", "3", "2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("backward: want %v, got %v", want, got)
	}
}

func TestTabSwitcherFirstLast(t *testing.T) {
	s := newABC()
	if tab, err := s.Last(); err != nil || tab.ID != "3" || s.ActiveID() != "3" {
		t.Fatalf("last: %+v %v", tab, err)
	}
	if tab, err := s.First(); err != nil || tab.ID != "1" || s.ActiveID() != "1" {
		t.Fatalf("first: %+v %v", tab, err)
	}
}

func TestTabSwitcherEmptyNavigation(t *testing.T) {
	s := NewTabSwitcher()
	if _, err := s.CycleForward(); !errors.Is(err, schema.ErrNoActiveTab) {
		t.Fatalf("expected ErrNoActiveTab, got %v", err)
	}
	if _, err := s.First(); !errors.Is(err, schema.ErrNoTabs) {
		t.Fatalf("expected ErrNoTabs, got %v", err)
	}
	if _, err := s.Last(); !errors.Is(err, schema.ErrNoTabs) {
		t.Fatalf("expected ErrNoTabs, got %v", err)
	}
}

func TestTabSwitcherTitleTaken(t *testing.T) {
	s := newABC()
	if !s.TitleTaken("B", "1") {
		t.Fatalf("expected B taken for tab 1")
	}
	if s.TitleTaken("B", "2") {
		t.Fatalf("expected own title not to count")
	}
	if s.TitleTaken("b", "1") {
		t.Fatalf("expected case-sensitive match")
	}
}

func TestRecentFilesUpsertInPlace(t *testing.T) {
	r := NewRecentFiles([]schema.RecentFile{
		{ID: "1", Title: "A"},
		{ID: "1", Title: "dup"},
		{ID: "2", Title: "B"},
	})
	if r.Len() != 2 {
		t.Fatalf("expected duplicates dropped, got %d", r.Len())
	}
	r.Upsert(schema.RecentFile{ID: "1", Title: "A2"})
	r.Upsert(schema.RecentFile{ID: "3", Title: "C"})
	want := []schema.RecentFile{{ID: "1", Title: "A2"}, {ID: "2", Title: "B"}, {ID: "3", Title: "C"}}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Fatalf("recent mismatch:\nwant: %+v\ngot:  %+v", want, got)
	}
	if !r.Remove("2") || r.Remove("2") {
		t.Fatalf("expected single removal")
	}
	if _, ok := r.Get("2"); ok {
		t.Fatalf("expected removed entry to be gone")
	}
	if entry, ok := r.Get("1"); !ok || entry.Title != "A2" {
		t.Fatalf("expected updated entry, got %+v %v", entry, ok)
	}
}
