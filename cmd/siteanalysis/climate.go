package main

import (
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/siteanalysis/internal/app"
	"github.com/stwalsh4118/siteanalysis/internal/services"
)

var (
	climateLat float64
	climateLon float64
)

var climateCmd = &cobra.Command{
	Use:   "climate",
	Short: "Print a climate summary for a point",
	Long:  "Fetches current weather (or a synthetic estimate) and rule-based climate patterns for the point. Nothing is stored.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := services.ValidateCoordinates(climateLat, climateLon); err != nil {
			return err
		}

		aggregator, cache := app.NewClimateAggregator(cfg, log, nil)
		if cache != nil {
			defer func() { _ = cache.Close() }()
		}

		summary, err := aggregator.Summary(cmd.Context(), climateLat, climateLon)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

func init() {
	climateCmd.Flags().Float64Var(&climateLat, "lat", 0, "latitude in decimal degrees")
	climateCmd.Flags().Float64Var(&climateLon, "lon", 0, "longitude in decimal degrees")
	_ = climateCmd.MarkFlagRequired("lat")
	_ = climateCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(climateCmd)
}
