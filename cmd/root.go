package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xburncrust",
		Short: "Media catalog service with AI image generation",
		Long: `xburncrust serves the media catalog API: browsing, favorites, view
counters, and the admin back-office for uploading and generating media assets.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}
