package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/trove"
	"pkt.systems/trove/core"
	"pkt.systems/trove/httpapi"
	"pkt.systems/trove/internal/appconfig"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var disableCommandAudit bool
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if disableCommandAudit {
				cfg.Logging.DisableCommandAudit = true
			}
			if noWatch {
				cfg.Watch.Enable = false
			}

			serverCfg := serverConfig(cfg)
			opts := []trove.ServerOption{trove.WithHTTP()}
			if cfg.Watch.Enable {
				opts = append(opts, trove.WithWatcher())
			}
			server, err := trove.New(serverCfg, trove.ServerDeps{
				ServiceDeps: core.ServiceDeps{Logger: logger},
			}, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&disableCommandAudit, "disable-command-audit", false, "disable audit logging for commands")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the trove directory for external edits")
	return cmd
}

func serverConfig(cfg appconfig.Config) trove.ServerConfig {
	return trove.ServerConfig{
		Service: cfg.ServiceConfig(),
		HTTP: httpapi.Config{
			Addr:    cfg.HTTP.Addr,
			History: cfg.HTTP.History,
		},
		Watch: trove.WatchConfig{
			Debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		},
	}
}
