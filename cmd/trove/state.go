package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/trove/internal/appconfig"
	"pkt.systems/trove/internal/persist"
)

func newStateCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the persisted workspace snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			store, err := persist.NewStoreWithLogger(cfg.UserDataDir, pslog.Ctx(cmd.Context()))
			if err != nil {
				return err
			}
			snapshot, ok, err := store.Load()
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("no workspace snapshot at " + store.Path())
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snapshot)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
