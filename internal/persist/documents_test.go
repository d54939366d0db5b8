package persist

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"pkt.systems/trove/schema"
)

func newTestDocuments(t *testing.T) *Documents {
	t.Helper()
	docs, err := NewDocuments(filepath.Join(t.TempDir(), "trove"), nil)
	if err != nil {
		t.Fatalf("new documents: %v", err)
	}
	return docs
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestGenerateAvailablePathUnusedBase(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "Untitled.md")
	got, err := GenerateAvailablePath(base)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != base {
		t.Fatalf("expected %q, got %q", base, got)
	}
}

func TestGenerateAvailablePathSkipsTaken(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Untitled.md"))
	touch(t, filepath.Join(dir, "Untitled 1.md"))
	touch(t, filepath.Join(dir, "Untitled 2.md"))
	got, err := GenerateAvailablePath(filepath.Join(dir, "Untitled.md"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if want := filepath.Join(dir, "Untitled 3.md"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGenerateAvailablePathStripsTrailingDigits(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Report 7.md"))
	touch(t, filepath.Join(dir, "Report 1.md"))
	got, err := GenerateAvailablePath(filepath.Join(dir, "Report 7.md"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if want := filepath.Join(dir, "Report 2.md"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGenerateAvailablePathAllDigits(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "2024.md"))
	got, err := GenerateAvailablePath(filepath.Join(dir, "2024.md"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if want := filepath.Join(dir, "2024 1.md"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDocumentsWriteReadDelete(t *testing.T) {
	docs := newTestDocuments(t)
	path, err := docs.Write("notes", "hello")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if want := filepath.Join(docs.Dir(), "notes.md"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
	got, err := docs.Read("notes")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if err := docs.Delete("notes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if docs.Exists("notes") {
		t.Fatalf("expected file removed")
	}
	if err := docs.Delete("notes"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestDocumentsReadMissing(t *testing.T) {
	docs := newTestDocuments(t)
	_, err := docs.Read("absent")
	if !errors.Is(err, schema.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	var ioErr *schema.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %T", err)
	}
}

func TestDocumentsPathSanitizes(t *testing.T) {
	docs := newTestDocuments(t)
	got := docs.Path("a/b:c")
	if want := filepath.Join(docs.Dir(), "a_b_c.md"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDocumentsReplaceMovesFile(t *testing.T) {
	docs := newTestDocuments(t)
	if _, err := docs.Write("old", "draft"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := docs.Replace("old", "new", "final"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if docs.Exists("old") {
		t.Fatalf("expected old file removed")
	}
	got, err := docs.Read("new")
	if err != nil {
		t.Fatalf("read new: %v", err)
	}
	if got != "final" {
		t.Fatalf("expected final, got %q", got)
	}
}

func TestDocumentsRename(t *testing.T) {
	docs := newTestDocuments(t)
	if _, err := docs.Write("before", "body"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := docs.Rename("before", "after"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if docs.Exists("before") {
		t.Fatalf("expected old file removed")
	}
	got, err := docs.Read("after")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "body" {
		t.Fatalf("expected body, got %q", got)
	}
	if err := docs.Rename("missing", "elsewhere"); err != nil {
		t.Fatalf("rename missing: %v", err)
	}
}

func TestDocumentsCreateAvailable(t *testing.T) {
	docs := newTestDocuments(t)
	title, _, err := docs.CreateAvailable(schema.DefaultTitle)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if title != "Untitled" {
		t.Fatalf("expected Untitled, got %q", title)
	}
	title, _, err = docs.CreateAvailable(schema.DefaultTitle)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if title != "Untitled 1" {
		t.Fatalf("expected Untitled 1, got %q", title)
	}
}

func TestDocumentsCreateAvailableConcurrent(t *testing.T) {
	docs := newTestDocuments(t)
	const n = 16
	titles := make([]schema.Title, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title, _, err := docs.CreateAvailable(schema.DefaultTitle)
			if err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			titles[i] = title
		}(i)
	}
	wg.Wait()
	seen := make(map[schema.Title]bool, n)
	for _, title := range titles {
		if seen[title] {
			t.Fatalf("duplicate title %q", title)
		}
		seen[title] = true
	}
	entries, err := os.ReadDir(docs.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d files, got %d", n, len(entries))
	}
}

func TestDocumentsTitleFromPath(t *testing.T) {
	docs := newTestDocuments(t)
	cases := []struct {
		path  string
		title schema.Title
		ok    bool
	}{
		{path: filepath.Join(docs.Dir(), "notes.md"), title: "notes", ok: true},
		{path: filepath.Join(docs.Dir(), "notes.txt")},
		{path: filepath.Join(docs.Dir(), "sub", "notes.md")},
		{path: filepath.Join(docs.Dir(), ".trove-123.tmp")},
		{path: filepath.Join(filepath.Dir(docs.Dir()), "outside.md")},
	}
	for _, tc := range cases {
		t.Run(filepath.Base(tc.path), func(t *testing.T) {
			title, ok := docs.TitleFromPath(tc.path)
			if ok != tc.ok || title != tc.title {
				t.Fatalf("expected (%q,%v), got (%q,%v)", tc.title, tc.ok, title, ok)
			}
		})
	}
}
