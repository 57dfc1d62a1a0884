// Package cmd assembles the command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hoofbeat/hoofbeat-go/cmd/config"
	"github.com/hoofbeat/hoofbeat-go/cmd/scan"
	"github.com/hoofbeat/hoofbeat-go/cmd/seed"
	"github.com/hoofbeat/hoofbeat-go/cmd/serve"
	"github.com/hoofbeat/hoofbeat-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hoofbeat",
		Short: "HoofBeat equestrian event listings ingestion",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(settings),
		scan.Command(settings),
		seed.Command(settings),
		config.Command(settings),
	)
	return rootCmd
}
