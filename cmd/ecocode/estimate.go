package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/omegabytes/ecocode-sentinel/config"
	"github.com/omegabytes/ecocode-sentinel/impact"
	"github.com/omegabytes/ecocode-sentinel/report"
	"github.com/omegabytes/ecocode-sentinel/server"
)

func newEstimateCmd() *cobra.Command {
	var (
		timeMs     float64
		executions int64
		power      float64
		co2        float64
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the monthly energy and CO2 of code from its execution time",
		Example: `  ecocode estimate --time-ms 200 --executions 1000000
  ecocode estimate --time-ms 35 --executions 250000 --power 320 --co2 0.21 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := config.LoadProfile()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("power") {
				profile.PowerWatts = power
			}
			if cmd.Flags().Changed("co2") {
				profile.CO2PerKWH = co2
			}
			if err := profile.Validate(); err != nil {
				return err
			}

			est, err := impact.NewCalculator(profile).Estimate(timeMs, executions)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(est)
			}
			return writeEstimate(cmd, profile, timeMs, executions, est)
		},
	}

	cmd.Flags().Float64VarP(&timeMs, "time-ms", "t", 0, "execution time per run in milliseconds")
	cmd.Flags().Int64VarP(&executions, "executions", "n", 1_000_000, "executions per month")
	cmd.Flags().Float64Var(&power, "power", server.GenericProfile().PowerWatts, "server power in watts (overrides SERVER_POWER_WATTS)")
	cmd.Flags().Float64Var(&co2, "co2", server.GenericProfile().CO2PerKWH, "kg CO2 per kWh (overrides CO2_PER_KWH)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the estimate as JSON")
	_ = cmd.MarkFlagRequired("time-ms")
	return cmd
}

func writeEstimate(cmd *cobra.Command, profile server.Profile, timeMs float64, executions int64, est impact.Estimate) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Server power\t%v W\n", profile.PowerWatts)
	fmt.Fprintf(tw, "CO2 per kWh\t%v kg\n", profile.CO2PerKWH)
	fmt.Fprintf(tw, "Execution time\t%v ms\n", timeMs)
	fmt.Fprintf(tw, "Monthly executions\t%d\n", executions)
	fmt.Fprintf(tw, "⚡ Energy Usage\t%s kWh/month\n", report.Humanize(est.EnergyKWH))
	fmt.Fprintf(tw, "🌍 CO2 Emissions\t%s kg/month\n", report.Humanize(est.CO2Kg))
	return tw.Flush()
}
