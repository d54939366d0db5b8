package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pkt.systems/trove/internal/logx"
	"pkt.systems/trove/schema"
)

// Command is a named request with an optional payload.
type Command struct {
	Name    string
	Payload *string
}

// Handler executes one named command.
type Handler interface {
	Handle(ctx context.Context, payload *string) (schema.WorkspaceView, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, payload *string) (schema.WorkspaceView, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, payload *string) (schema.WorkspaceView, error) {
	return f(ctx, payload)
}

// Config configures dispatch behavior.
type Config struct {
	// DisableAuditLogging disables audit trail debug logs for commands.
	DisableAuditLogging bool
}

// Registry maps command names to exactly one handler each.
type Registry struct {
	cfg      Config
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		handlers: make(map[string]Handler),
	}
}

// Register binds name to h. A name can only be bound once.
func (r *Registry) Register(name string, h Handler) error {
	name = normalizeName(name)
	if name == "" || h == nil {
		return errors.New("command name and handler are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", schema.ErrHandlerExists, name)
	}
	r.handlers[name] = h
	return nil
}

// Lookup returns the handler bound to name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[normalizeName(name)]
	return h, ok
}

// Has reports whether name has a handler.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes cmd to its handler.
func (r *Registry) Dispatch(ctx context.Context, cmd Command) (schema.WorkspaceView, error) {
	if ctx == nil {
		return schema.WorkspaceView{}, errors.New("missing context")
	}
	name := normalizeName(cmd.Name)
	log := logx.WithCommand(ctx, name)
	ctx = logx.ContextWithCommandLogger(ctx, log, name)
	if !r.cfg.DisableAuditLogging {
		payloadLen := -1
		if cmd.Payload != nil {
			payloadLen = len(*cmd.Payload)
		}
		log.Debug("audit command", "payload_len", payloadLen)
	}
	h, ok := r.Lookup(name)
	if !ok {
		log.Warn("command dispatch rejected", "err", schema.ErrUnknownCommand)
		return schema.WorkspaceView{}, fmt.Errorf("%w: %q", schema.ErrUnknownCommand, cmd.Name)
	}
	view, err := h.Handle(ctx, cmd.Payload)
	if err != nil {
		log.Debug("command dispatch failed", "err", err)
		return view, err
	}
	log.Trace("command dispatched", "active", view.ActiveTab)
	return view, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
