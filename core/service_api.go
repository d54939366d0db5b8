package core

import (
	"context"

	"pkt.systems/trove/schema"
)

// Service is the transport-agnostic API of the workspace coordinator. Every
// operation returns the visible state after it ran.
type Service interface {
	OpenTab(ctx context.Context, req schema.OpenTabRequest) (schema.WorkspaceView, error)
	NewTab(ctx context.Context) (schema.WorkspaceView, error)
	SaveTab(ctx context.Context, req schema.SaveTabRequest) (schema.WorkspaceView, error)
	CloseTab(ctx context.Context, id schema.TabID) (schema.WorkspaceView, error)
	DeleteTab(ctx context.Context, id schema.TabID) (schema.WorkspaceView, error)
	SwitchTab(ctx context.Context, id schema.TabID) (schema.WorkspaceView, error)
	RenameTab(ctx context.Context, req schema.RenameTabRequest) (schema.WorkspaceView, error)
	CycleTab(ctx context.Context) (schema.WorkspaceView, error)
	CycleTabBack(ctx context.Context) (schema.WorkspaceView, error)
	FirstTab(ctx context.Context) (schema.WorkspaceView, error)
	LastTab(ctx context.Context) (schema.WorkspaceView, error)
	SetTheme(ctx context.Context, req schema.SetThemeRequest) (schema.WorkspaceView, error)
	State(ctx context.Context) (schema.WorkspaceView, error)
	SaveState(ctx context.Context) error
	Close(ctx context.Context) error
	DocumentRefresher
}

// DocumentRefresher accepts document contents changed outside the workspace.
type DocumentRefresher interface {
	RefreshDocument(ctx context.Context, title schema.Title, contents string) bool
}
