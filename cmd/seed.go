package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xburncrust/xburncrust/internal/catalog"
)

func newSeedCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the catalog schema and load the starter catalog",
		Long: `Creates the sqlite catalog database if needed, wipes any existing
categories and media, and loads the built-in starter catalog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Seed(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "xburncrust.db", "Path to the catalog database")

	return cmd
}
