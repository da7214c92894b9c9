package main

import (
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/siteanalysis/internal/app"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/services"
)

var (
	analyzeLat    float64
	analyzeLon    float64
	analyzeRadius int
	analyzeName   string
)

// analyzeOutput is printed after a successful run.
type analyzeOutput struct {
	Site          *models.SiteAnalysis   `json:"site"`
	Summary       models.AnalysisSummary `json:"summary"`
	FeaturesCount int                    `json:"features_count"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the environment around a point",
	Long:  "Extracts map features around the point, stores the analysis with its climate data and prints the summary as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := app.New(ctx, cfg, log, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Analysis.AnalyzeSite(ctx, services.AnalyzeRequest{
			Name:      analyzeName,
			Latitude:  analyzeLat,
			Longitude: analyzeLon,
			Radius:    analyzeRadius,
		})
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), analyzeOutput{
			Site:          result.Site,
			Summary:       result.Summary,
			FeaturesCount: result.FeaturesCount,
		})
	},
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeLat, "lat", 0, "latitude in decimal degrees")
	analyzeCmd.Flags().Float64Var(&analyzeLon, "lon", 0, "longitude in decimal degrees")
	analyzeCmd.Flags().IntVar(&analyzeRadius, "radius", services.DefaultRadiusMeters, "analysis radius in meters (100-2000)")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "site name (defaults to the coordinates)")
	_ = analyzeCmd.MarkFlagRequired("lat")
	_ = analyzeCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(analyzeCmd)
}
