package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/trove"
	"pkt.systems/trove/core"
	"pkt.systems/trove/internal/appconfig"
	"pkt.systems/trove/internal/command"
	"pkt.systems/trove/internal/watcher"
	"pkt.systems/trove/schema"
)

func newREPLCmd() *cobra.Command {
	var cfgPath string
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Run workspace commands read from stdin",
		Long: heredoc.Doc(`
			Read one command per line in the form "/name payload" and print the
			resulting workspace view as a JSON line. Structured payloads are JSON
			objects, e.g.

			  /save_tab {"id":"...","title":"Notes","contents":"# hi"}
			  /switch_tab 0b6f...
			  /cycle_tab

			Documents edited outside the workspace are reported as refreshed events.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			ws, err := trove.OpenWorkspace(cfg.ServiceConfig(), core.ServiceDeps{Logger: logger})
			if err != nil {
				return err
			}
			var watch *watcher.Watcher
			if cfg.Watch.Enable && !noWatch {
				watch, err = watcher.New(watcher.Config{
					Documents: ws.Documents,
					Target:    ws.Service,
					Debounce:  time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
					Logger:    logger,
				})
				if err != nil {
					_ = ws.Close(context.Background())
					return err
				}
				go func() { _ = watch.Run(ctx) }()
			}
			replErr := runREPL(ctx, ws, cmd.InOrStdin(), cmd.OutOrStdout())
			if watch != nil {
				_ = watch.Close()
			}
			return errors.Join(replErr, ws.Close(context.Background()))
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the trove directory for external edits")
	return cmd
}

type replOutput struct {
	Command string                `json:"command,omitempty"`
	Event   schema.EventType      `json:"event,omitempty"`
	View    *schema.WorkspaceView `json:"view,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// runREPL dispatches every command line from in and writes one JSON line per
// result to out. Refreshes caused by external edits are written as they arrive.
func runREPL(ctx context.Context, ws *trove.Workspace, in io.Reader, out io.Writer) error {
	var mu sync.Mutex
	enc := json.NewEncoder(out)
	write := func(v replOutput) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(v)
	}

	events, cancel := ws.Bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			if event.Type != schema.EventRefreshed {
				continue
			}
			view := event.View
			_ = write(replOutput{Event: event.Type, View: &view})
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, ok := command.Parse(line)
		if !ok || cmd.Name == "" {
			if err := write(replOutput{Error: "expected /name payload"}); err != nil {
				return err
			}
			continue
		}
		view, err := ws.Registry.Dispatch(ctx, cmd)
		result := replOutput{Command: cmd.Name}
		if err != nil {
			result.Error = err.Error()
		} else {
			result.View = &view
		}
		if err := write(result); err != nil {
			return err
		}
	}
	return scanner.Err()
}
