package command

import (
	"context"
	"sync"

	"pkt.systems/trove/schema"
)

type call struct {
	op  string
	arg any
}

// fakeService records every call and echoes the tab id it was given.
type fakeService struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeService) record(op string, arg any) (schema.WorkspaceView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: op, arg: arg})
	if f.err != nil {
		return schema.WorkspaceView{}, f.err
	}
	view := schema.WorkspaceView{Theme: schema.DefaultTheme}
	if id, ok := arg.(schema.TabID); ok {
		view.ActiveTab = id
	}
	return view, nil
}

func (f *fakeService) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeService) OpenTab(_ context.Context, req schema.OpenTabRequest) (schema.WorkspaceView, error) {
	return f.record("open", req)
}

func (f *fakeService) NewTab(context.Context) (schema.WorkspaceView, error) {
	return f.record("new", nil)
}

func (f *fakeService) SaveTab(_ context.Context, req schema.SaveTabRequest) (schema.WorkspaceView, error) {
	return f.record("save", req)
}

func (f *fakeService) CloseTab(_ context.Context, id schema.TabID) (schema.WorkspaceView, error) {
	return f.record("close", id)
}

func (f *fakeService) DeleteTab(_ context.Context, id schema.TabID) (schema.WorkspaceView, error) {
	return f.record("delete", id)
}

func (f *fakeService) SwitchTab(_ context.Context, id schema.TabID) (schema.WorkspaceView, error) {
	return f.record("switch", id)
}

func (f *fakeService) RenameTab(_ context.Context, req schema.RenameTabRequest) (schema.WorkspaceView, error) {
	return f.record("rename", req)
}

func (f *fakeService) CycleTab(context.Context) (schema.WorkspaceView, error) {
	return f.record("cycle", nil)
}

func (f *fakeService) CycleTabBack(context.Context) (schema.WorkspaceView, error) {
	return f.record("cycle_back", nil)
}

func (f *fakeService) FirstTab(context.Context) (schema.WorkspaceView, error) {
	return f.record("first", nil)
}

func (f *fakeService) LastTab(context.Context) (schema.WorkspaceView, error) {
	return f.record("last", nil)
}

func (f *fakeService) SetTheme(_ context.Context, req schema.SetThemeRequest) (schema.WorkspaceView, error) {
	return f.record("theme", req)
}

func (f *fakeService) State(context.Context) (schema.WorkspaceView, error) {
	return f.record("state", nil)
}

func (f *fakeService) SaveState(context.Context) error {
	_, err := f.record("save_state", nil)
	return err
}

func (f *fakeService) Close(context.Context) error {
	_, err := f.record("close_service", nil)
	return err
}

func (f *fakeService) RefreshDocument(_ context.Context, title schema.Title, _ string) bool {
	_, _ = f.record("refresh", title)
	return false
}
