// Package watcher feeds external edits of trove documents back into the workspace.
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/pslog"
	"pkt.systems/trove/core"
	"pkt.systems/trove/internal/persist"
	"pkt.systems/trove/schema"
)

// DefaultDebounce coalesces bursts of writes to the same file.
const DefaultDebounce = 150 * time.Millisecond

// Config configures a trove watcher.
type Config struct {
	Documents *persist.Documents
	Target    core.DocumentRefresher
	Debounce  time.Duration
	Logger    pslog.Logger
}

// Watcher watches the trove directory and refreshes cached documents.
type Watcher struct {
	fs       *fsnotify.Watcher
	docs     *persist.Documents
	target   core.DocumentRefresher
	debounce time.Duration
	log      pslog.Logger

	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	pending map[schema.Title]struct{}
}

// New starts watching the trove directory. Events are handled by Run.
func New(cfg Config) (*Watcher, error) {
	if cfg.Documents == nil {
		return nil, errors.New("documents are required")
	}
	if cfg.Target == nil {
		return nil, errors.New("refresh target is required")
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(cfg.Documents.Dir()); err != nil {
		_ = fsw.Close()
		return nil, &schema.IOError{Op: "watch", Path: cfg.Documents.Dir(), Err: err}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Watcher{
		fs:       fsw,
		docs:     cfg.Documents,
		target:   cfg.Target,
		debounce: debounce,
		log:      logger.With("trove", cfg.Documents.Dir()),
		done:     make(chan struct{}),
		pending:  make(map[schema.Title]struct{}),
	}, nil
}

// Run processes events until ctx is canceled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	w.log.Info("watcher started")
	defer w.log.Info("watcher stopped")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	armed := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.queue(event) {
				continue
			}
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			armed = true
		case <-timer.C:
			armed = false
			w.flush(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.log.Warn("watcher error", "err", err)
			}
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) queue(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	title, ok := w.docs.TitleFromPath(event.Name)
	if !ok {
		return false
	}
	w.mu.Lock()
	w.pending[title] = struct{}{}
	w.mu.Unlock()
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	titles := make([]schema.Title, 0, len(w.pending))
	for title := range w.pending {
		titles = append(titles, title)
	}
	w.pending = make(map[schema.Title]struct{})
	w.mu.Unlock()

	ctx = pslog.ContextWithLogger(ctx, w.log)
	for _, title := range titles {
		contents, err := w.docs.Read(title)
		if err != nil {
			if !errors.Is(err, schema.ErrDocumentNotFound) {
				w.log.Warn("watcher read failed", "title", title, "err", err)
			}
			continue
		}
		if w.target.RefreshDocument(ctx, title, contents) {
			w.log.Debug("watcher refreshed document", "title", title)
		}
	}
}
