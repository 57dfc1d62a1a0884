// Package config implements the config file generation command.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
)

// Command returns the config subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the current settings to a config file as a starting point",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.SaveYAML(settings, output); err != nil {
				return fmt.Errorf("writing config file: %w", err)
			}
			fmt.Printf("config written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "config.yaml", "Path of the config file to write")
	return cmd
}
