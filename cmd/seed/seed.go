// Package seed implements the catalog reconciliation command.
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/seed"
)

// Command returns the seed subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Reconcile the source, venue and discipline registries with the embedded catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	reconciler := seed.NewReconciler(settings, store)
	if err := reconciler.Reconcile(); err != nil {
		return err
	}
	if err := reconciler.BackfillPlaceholders(); err != nil {
		return err
	}
	fmt.Println("seed catalog reconciled")
	return nil
}
