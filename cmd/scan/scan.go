// Package scan implements the one-shot scan command.
package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/scanner"
	"github.com/hoofbeat/hoofbeat-go/internal/seed"
)

// Command returns the scan subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var sourceKey string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan one source or all enabled sources and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, sourceKey)
		},
	}
	cmd.Flags().StringVarP(&sourceKey, "source", "s", "", "Parser key of a single source to scan")
	return cmd
}

func run(settings *conf.Settings, sourceKey string) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	reconciler := seed.NewReconciler(settings, store)
	if err := reconciler.Reconcile(); err != nil {
		return fmt.Errorf("reconciling seed catalog: %w", err)
	}
	if err := seed.RegisterParsers(settings); err != nil {
		return fmt.Errorf("registering parsers: %w", err)
	}

	geocoder := geocoding.New(settings)
	defer geocoder.Close()

	orchestrator := scanner.New(settings, store, geocoder)
	if err := orchestrator.RecoverInterrupted(); err != nil {
		return fmt.Errorf("recovering interrupted scans: %w", err)
	}

	var scanIDs []uint
	if sourceKey != "" {
		source, err := store.GetSourceByParserKey(sourceKey)
		if err != nil {
			return fmt.Errorf("unknown source %q", sourceKey)
		}
		scanID, err := orchestrator.StartSource(source.ID)
		if err != nil {
			return err
		}
		if scanID == 0 {
			fmt.Printf("source %s already has an active scan, skipped\n", source.Name)
		} else {
			scanIDs = []uint{scanID}
		}
	} else {
		var err error
		scanIDs, err = orchestrator.StartAll()
		if err != nil {
			return err
		}
	}

	orchestrator.Wait()

	for _, scanID := range scanIDs {
		scan, err := store.GetScan(scanID)
		if err != nil {
			return err
		}
		sourceName := "all"
		if scan.SourceID != nil {
			if source, err := store.GetSource(*scan.SourceID); err == nil {
				sourceName = source.Name
			}
		}
		fmt.Printf("scan %d (%s): %s, %d competitions", scan.ID, sourceName, scan.Status, scan.CompetitionsFound)
		if scan.Error != "" {
			fmt.Printf(" (%s)", scan.Error)
		}
		fmt.Println()
	}
	return nil
}
