package trove

import (
	"context"
	"errors"

	"pkt.systems/pslog"
	"pkt.systems/trove/core"
	"pkt.systems/trove/internal/command"
	"pkt.systems/trove/internal/eventbus"
	"pkt.systems/trove/internal/persist"
	"pkt.systems/trove/schema"
)

// Workspace bundles the coordinator with its document gateway, command
// registry and in-process event bus.
type Workspace struct {
	Service   core.Service
	Documents *persist.Documents
	Registry  *command.Registry
	Bus       *eventbus.Bus
}

// OpenWorkspace restores the workspace described by cfg. Extra sinks receive
// every workspace event, including the one emitted by the restore itself.
func OpenWorkspace(cfg schema.ServiceConfig, deps core.ServiceDeps, sinks ...core.EventSink) (*Workspace, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
		deps.Logger = logger
	}
	if deps.Documents == nil {
		docs, err := persist.NewDocuments(cfg.TroveDir, logger)
		if err != nil {
			return nil, err
		}
		deps.Documents = docs
	}

	bus := eventbus.New(logger)
	all := make([]core.EventSink, 0, len(sinks)+2)
	if deps.EventSink != nil {
		all = append(all, deps.EventSink)
	}
	all = append(all, bus)
	for _, sink := range sinks {
		if sink != nil {
			all = append(all, sink)
		}
	}
	if len(all) == 1 {
		deps.EventSink = all[0]
	} else {
		deps.EventSink = eventFanout{sinks: all}
	}

	service, err := core.NewService(cfg, deps)
	if err != nil {
		return nil, err
	}
	registry := command.NewRegistry(command.Config{DisableAuditLogging: cfg.DisableAuditLogging})
	if err := errors.Join(
		command.RegisterTabHandlers(registry, service),
		command.RegisterWorkspaceHandlers(registry, service),
	); err != nil {
		_ = service.Close(context.Background())
		return nil, err
	}
	logger.Info("workspace opened", "trove", deps.Documents.Dir(), "commands", len(registry.Names()))
	return &Workspace{
		Service:   service,
		Documents: deps.Documents,
		Registry:  registry,
		Bus:       bus,
	}, nil
}

// Close flushes the workspace to disk.
func (w *Workspace) Close(ctx context.Context) error {
	if w == nil || w.Service == nil {
		return nil
	}
	return w.Service.Close(ctx)
}
