package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pkt.systems/trove/core"
	"pkt.systems/trove/internal/logx"
	"pkt.systems/trove/schema"
)

// Command names served by the workspace.
const (
	OpenTab      = "open_tab"
	NewTab       = "new_tab"
	SaveTab      = "save_tab"
	CloseTab     = "close_tab"
	DeleteTab    = "delete_tab"
	SwitchTab    = "switch_tab"
	RenameTab    = "rename_tab"
	CycleTab     = "cycle_tab"
	CycleTabBack = "cycle_tab_back"
	FirstTab     = "first_tab"
	LastTab      = "last_tab"
	SetTheme     = "set_theme"
	GetState     = "get_state"
	SaveState    = "save_state"
)

// RegisterTabHandlers binds the tab commands to svc.
func RegisterTabHandlers(r *Registry, svc core.Service) error {
	handlers := map[string]Handler{
		OpenTab: HandlerFunc(func(ctx context.Context, payload *string) (schema.WorkspaceView, error) {
			var req schema.OpenTabRequest
			if err := decodeOpen(ctx, payload, &req); err != nil {
				return schema.WorkspaceView{}, err
			}
			return svc.OpenTab(ctx, req)
		}),
		NewTab: HandlerFunc(func(ctx context.Context, _ *string) (schema.WorkspaceView, error) {
			return svc.NewTab(ctx)
		}),
		SaveTab: HandlerFunc(func(ctx context.Context, payload *string) (schema.WorkspaceView, error) {
			var req schema.SaveTabRequest
			if err := decodeJSON(ctx, payload, &req); err != nil {
				return schema.WorkspaceView{}, err
			}
			if req.ID == "" {
				return schema.WorkspaceView{}, invalid(ctx, "missing id")
			}
			return svc.SaveTab(ctx, req)
		}),
		CloseTab:  idHandler(svc.CloseTab),
		DeleteTab: idHandler(svc.DeleteTab),
		SwitchTab: idHandler(svc.SwitchTab),
		RenameTab: HandlerFunc(func(ctx context.Context, payload *string) (schema.WorkspaceView, error) {
			var req schema.RenameTabRequest
			if err := decodeJSON(ctx, payload, &req); err != nil {
				return schema.WorkspaceView{}, err
			}
			if req.ID == "" {
				return schema.WorkspaceView{}, invalid(ctx, "missing id")
			}
			return svc.RenameTab(ctx, req)
		}),
		CycleTab:     noPayload(svc.CycleTab),
		CycleTabBack: noPayload(svc.CycleTabBack),
		FirstTab:     noPayload(svc.FirstTab),
		LastTab:      noPayload(svc.LastTab),
	}
	return registerAll(r, handlers)
}

// RegisterWorkspaceHandlers binds the theme and state commands to svc.
func RegisterWorkspaceHandlers(r *Registry, svc core.Service) error {
	handlers := map[string]Handler{
		SetTheme: HandlerFunc(func(ctx context.Context, payload *string) (schema.WorkspaceView, error) {
			theme, err := decodeScalar(ctx, payload, "theme")
			if err != nil {
				return schema.WorkspaceView{}, err
			}
			return svc.SetTheme(ctx, schema.SetThemeRequest{Theme: schema.ThemeName(theme)})
		}),
		GetState: noPayload(svc.State),
		SaveState: HandlerFunc(func(ctx context.Context, _ *string) (schema.WorkspaceView, error) {
			if err := svc.SaveState(ctx); err != nil {
				return schema.WorkspaceView{}, err
			}
			return svc.State(ctx)
		}),
	}
	return registerAll(r, handlers)
}

func registerAll(r *Registry, handlers map[string]Handler) error {
	for name, h := range handlers {
		if err := r.Register(name, h); err != nil {
			return err
		}
	}
	return nil
}

func idHandler(fn func(context.Context, schema.TabID) (schema.WorkspaceView, error)) Handler {
	return HandlerFunc(func(ctx context.Context, payload *string) (schema.WorkspaceView, error) {
		id, err := decodeScalar(ctx, payload, "id")
		if err != nil {
			return schema.WorkspaceView{}, err
		}
		ctx = logx.ContextWithTabLogger(ctx, logx.WithTab(ctx, schema.TabID(id)), schema.TabID(id))
		return fn(ctx, schema.TabID(id))
	})
}

func noPayload(fn func(context.Context) (schema.WorkspaceView, error)) Handler {
	return HandlerFunc(func(ctx context.Context, _ *string) (schema.WorkspaceView, error) {
		return fn(ctx)
	})
}

// decodeJSON parses a required JSON object payload.
func decodeJSON(ctx context.Context, payload *string, v any) error {
	if payload == nil || strings.TrimSpace(*payload) == "" {
		return invalid(ctx, "missing payload")
	}
	if err := json.Unmarshal([]byte(*payload), v); err != nil {
		return invalid(ctx, err.Error())
	}
	return nil
}

// decodeOpen accepts either a JSON request or a bare document title.
func decodeOpen(ctx context.Context, payload *string, req *schema.OpenTabRequest) error {
	if payload != nil && strings.HasPrefix(strings.TrimSpace(*payload), "{") {
		return decodeJSON(ctx, payload, req)
	}
	title, err := decodeScalar(ctx, payload, "title")
	if err != nil {
		return err
	}
	req.Title = schema.Title(title)
	return nil
}

// decodeScalar accepts a bare value, a JSON string or a JSON object holding
// the value under key.
func decodeScalar(ctx context.Context, payload *string, key string) (string, error) {
	if payload == nil {
		return "", invalid(ctx, "missing "+key)
	}
	raw := strings.TrimSpace(*payload)
	var value string
	switch {
	case strings.HasPrefix(raw, `"`):
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return "", invalid(ctx, err.Error())
		}
	case strings.HasPrefix(raw, "{"):
		fields := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return "", invalid(ctx, err.Error())
		}
		value = fields[key]
	default:
		value = raw
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(ctx, "missing "+key)
	}
	return value, nil
}

func invalid(ctx context.Context, reason string) error {
	logx.Ctx(ctx).Warn("command payload rejected", "reason", reason)
	return fmt.Errorf("%w: %s", schema.ErrInvalidPayload, reason)
}
