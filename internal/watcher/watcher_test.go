package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pkt.systems/trove/internal/persist"
	"pkt.systems/trove/schema"
)

type refresh struct {
	title    schema.Title
	contents string
}

type recordingTarget struct {
	mu    sync.Mutex
	calls []refresh
	ch    chan refresh
}

func newRecordingTarget() *recordingTarget {
	return &recordingTarget{ch: make(chan refresh, 16)}
}

func (r *recordingTarget) RefreshDocument(_ context.Context, title schema.Title, contents string) bool {
	r.mu.Lock()
	r.calls = append(r.calls, refresh{title: title, contents: contents})
	r.mu.Unlock()
	r.ch <- refresh{title: title, contents: contents}
	return true
}

func startWatcher(t *testing.T) (*persist.Documents, *recordingTarget) {
	t.Helper()
	docs, err := persist.NewDocuments(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new documents: %v", err)
	}
	target := newRecordingTarget()
	w, err := New(Config{Documents: docs, Target: target, Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
		<-done
	})
	return docs, target
}

func TestWatcherRefreshesOnExternalWrite(t *testing.T) {
	docs, target := startWatcher(t)
	if err := os.WriteFile(filepath.Join(docs.Dir(), "Notes.md"), []byte("edited"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-target.ch:
		if got.title != "Notes" || got.contents != "edited" {
			t.Fatalf("unexpected refresh %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for refresh")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	docs, target := startWatcher(t)
	if err := os.WriteFile(filepath.Join(docs.Dir(), "image.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(docs.Dir(), "Marker.md"), []byte("m"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-target.ch:
		if got.title != "Marker" {
			t.Fatalf("expected only markdown refresh, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for refresh")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	docs, target := startWatcher(t)
	path := filepath.Join(docs.Dir(), "Burst.md")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("final"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	select {
	case got := <-target.ch:
		if got.contents != "final" {
			t.Fatalf("unexpected contents %q", got.contents)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for refresh")
	}
}

func TestNewRequiresTarget(t *testing.T) {
	docs, err := persist.NewDocuments(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new documents: %v", err)
	}
	if _, err := New(Config{Documents: docs}); err == nil {
		t.Fatalf("expected error without target")
	}
}
