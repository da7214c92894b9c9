package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/siteanalysis/internal/config"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
)

var (
	cfg   *config.Config
	log   *logger.Logger
	quiet bool
)

var rootCmd = &cobra.Command{
	Use:           "siteanalysis",
	Short:         "Site environmental analysis tools",
	Long:          "Runs schema migrations, site analyses and climate summaries against the configured services.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if quiet {
			log = logger.Nop()
		} else {
			log = logger.NewWithWriter(cfg.Server.Env, cmd.ErrOrStderr())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
