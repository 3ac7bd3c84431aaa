package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/omegabytes/ecocode-sentinel/config"
	"github.com/omegabytes/ecocode-sentinel/report"
)

func newSessionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the cumulative impact recorded in the configured session",
		Long:  "Session prints the totals and history kept in Redis (REDIS_URL). Without Redis the session is empty.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			a := &app{cfg: cfg}
			acc, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			totals := acc.Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(totals)
			}
			return report.WriteSession(cmd.OutOrStdout(), totals)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")
	return cmd
}
