package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithTitleAddsField(t *testing.T) {
	capture := &logCapture{}
	log := WithTitle(newCaptureLogger(capture), "notes")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["title"] != "notes" {
		t.Fatalf("expected title field, got %+v", entry)
	}
}

func TestWithTitleSkipsEmpty(t *testing.T) {
	capture := &logCapture{}
	log := WithTitle(newCaptureLogger(capture), "")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["title"]; ok {
		t.Fatalf("did not expect title for empty value")
	}
}

func TestWithTabAddsField(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	log := WithTab(ctx, "tab1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["tab"] != "tab1" {
		t.Fatalf("expected tab field, got %+v", entry)
	}
}

func TestContextWithTabLoggerDeduplicates(t *testing.T) {
	capture := &logCapture{}
	base := newCaptureLogger(capture)
	ctx := ContextWithTabLogger(context.Background(), base.With("tab", "tab1"), "tab1")
	log := WithTab(ctx, "tab1")
	log.Info("hello")

	line := capture.buf.String()
	if n := bytes.Count([]byte(line), []byte(`"tab"`)); n != 1 {
		t.Fatalf("expected one tab field, got %d in %s", n, line)
	}
}

func TestWithCommandAddsField(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	log := WithCommand(ctx, "close_tab")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["command"] != "close_tab" {
		t.Fatalf("expected command field, got %+v", entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
