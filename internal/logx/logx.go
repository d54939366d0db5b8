package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/trove/schema"
)

type contextKey int

const (
	tabKey contextKey = iota
	commandKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithTab annotates the context logger with the tab id if present.
func WithTab(ctx context.Context, tabID schema.TabID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if tabID != "" {
		if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
			return log
		}
		log = log.With("tab", tabID)
	}
	return log
}

// WithTitle annotates the logger with a document title when available.
func WithTitle(log pslog.Logger, title schema.Title) pslog.Logger {
	if title != "" {
		log = log.With("title", title)
	}
	return log
}

// WithCommand annotates the context logger with the dispatched command name.
func WithCommand(ctx context.Context, name string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if name != "" {
		if current, ok := ctx.Value(commandKey).(string); ok && current == name {
			return log
		}
		log = log.With("command", name)
	}
	return log
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey, tabID)
}

// ContextWithTabLogger attaches the logger and tab marker to the context.
func ContextWithTabLogger(ctx context.Context, log pslog.Logger, tabID schema.TabID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithTab(ctx, tabID)
}

// ContextWithCommandLogger attaches the logger and command marker to the context.
func ContextWithCommandLogger(ctx context.Context, log pslog.Logger, name string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	if ctx == nil || name == "" {
		return ctx
	}
	return context.WithValue(ctx, commandKey, name)
}
