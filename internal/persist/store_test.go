package persist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pkt.systems/trove/schema"
)

func TestStoreLoadMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected missing snapshot")
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	snapshot := UserDataSnapshot{
		ActiveTabs: []schema.Tab{
			{ID: "tab1", Title: "notes"},
			{ID: "tab2", Title: "Untitled 1"},
		},
		ActiveTabID: "tab2",
		RecentFiles: []schema.RecentFile{
			{ID: "tab1", Title: "notes", Path: filepath.Join(dir, "notes.md")},
		},
		CurrentTheme: "outrun",
	}
	if err := store.Save(snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot to exist")
	}
	if !reflect.DeepEqual(snapshot, got) {
		t.Fatalf("snapshot mismatch:\nwant: %+v\ngot:  %+v", snapshot, got)
	}
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat snapshot: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 snapshot, got %v", info.Mode().Perm())
	}
}

func TestStoreSaveOverwritesWholeFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	first := UserDataSnapshot{
		ActiveTabs:   []schema.Tab{{ID: "a", Title: "a"}, {ID: "b", Title: "b"}},
		ActiveTabID:  "a",
		RecentFiles:  []schema.RecentFile{},
		CurrentTheme: schema.DefaultTheme,
	}
	second := UserDataSnapshot{
		ActiveTabs:   []schema.Tab{{ID: "c", Title: "c"}},
		ActiveTabID:  "c",
		RecentFiles:  []schema.RecentFile{},
		CurrentTheme: schema.DefaultTheme,
	}
	if err := store.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	got, _, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(second, got) {
		t.Fatalf("snapshot mismatch:\nwant: %+v\ngot:  %+v", second, got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestStoreLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SnapshotFile), []byte("{not-json"), 0o600); err != nil {
		t.Fatalf("write bad json: %v", err)
	}
	if _, _, err := store.Load(); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestStoreLoadReadErrorIsIOError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.Mkdir(store.Path(), 0o700); err != nil {
		t.Fatalf("mkdir in place of snapshot: %v", err)
	}
	_, _, err = store.Load()
	var ioErr *schema.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if ioErr.Op != "read" {
		t.Fatalf("expected read op, got %q", ioErr.Op)
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
