package trove

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pkt.systems/pslog"
	"pkt.systems/trove/core"
	"pkt.systems/trove/httpapi"
	"pkt.systems/trove/internal/watcher"
	"pkt.systems/trove/schema"
)

// Server composes the HTTP command boundary and the trove watcher around one
// workspace.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service schema.ServiceConfig
	HTTP    httpapi.Config
	Watch   WatchConfig
}

// WatchConfig configures the trove watcher.
type WatchConfig struct {
	Debounce time.Duration
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP    bool
	enableWatcher bool
}

// WithHTTP enables the HTTP command boundary.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithWatcher enables refreshing open documents edited outside the workspace.
func WithWatcher() ServerOption {
	return func(o *serverOptions) { o.enableWatcher = true }
}

// New constructs a composable trove server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableWatcher {
		return nil, errors.New("no services enabled")
	}

	var hub *httpapi.Hub
	var sinks []core.EventSink
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HTTP.History, deps.ServiceDeps.Logger)
		sinks = append(sinks, hub)
	}
	ws, err := OpenWorkspace(cfg.Service, deps.ServiceDeps, sinks...)
	if err != nil {
		return nil, err
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, ws.Registry, hub)
	}
	var watch *watcher.Watcher
	if options.enableWatcher {
		watch, err = watcher.New(watcher.Config{
			Documents: ws.Documents,
			Target:    ws.Service,
			Debounce:  cfg.Watch.Debounce,
			Logger:    deps.ServiceDeps.Logger,
		})
		if err != nil {
			_ = ws.Close(context.Background())
			return nil, err
		}
	}

	return &compositeServer{
		cfg:       cfg,
		options:   options,
		workspace: ws,
		httpSrv:   httpSrv,
		watcher:   watch,
	}, nil
}

type compositeServer struct {
	cfg       ServerConfig
	options   serverOptions
	workspace *Workspace
	httpSrv   *httpapi.Server
	watcher   *watcher.Watcher
	logger    pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
	done    chan struct{}
	err     error

	closeOnce sync.Once
	closeErr  error
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.group, s.ctx = errgroup.WithContext(s.ctx)
	s.done = make(chan struct{})
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"watcher", s.options.enableWatcher,
		"http_addr", s.cfg.HTTP.Addr,
		"trove", s.workspace.Documents.Dir(),
	)
	if s.httpSrv != nil {
		s.group.Go(func() error {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				return err
			}
			return nil
		})
	}
	if s.watcher != nil {
		s.group.Go(func() error {
			if err := s.watcher.Run(s.ctx); err != nil {
				log.Error("watcher failed", "err", err)
				return err
			}
			return nil
		})
	}
	go func() {
		err := s.group.Wait()
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	}()
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	done := s.done
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
	case <-done:
	}
	<-done
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		pslog.Ctx(ctx).Error("server stopped", "err", err)
	}
	return errors.Join(err, s.shutdown(context.Background()))
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	done := s.done
	log := s.logger
	s.mu.Unlock()
	if !started {
		return s.shutdown(ctx)
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-done:
	}
	if err := s.shutdown(ctx); err != nil {
		log.Warn("server shutdown failed", "err", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

// shutdown closes the watcher and flushes the workspace exactly once. Every
// caller returns after the flush completes.
func (s *compositeServer) shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.closeOnce.Do(func() {
		var errs []error
		if s.watcher != nil {
			errs = append(errs, s.watcher.Close())
		}
		errs = append(errs, s.workspace.Close(ctx))
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
