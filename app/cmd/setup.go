package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lloydmeta/notesync/internal/infra/server"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run notesync setup",
	Long:  "Installs what the configured storage backend needs: Index Templates for Elasticsearch, tables for SQLite",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		storage, err := server.NewStorage(&appConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not connect to storage")
		}
		defer storage.Close()

		log.Info().Str("backend", string(storage.Backend)).Msg("Setting up storage")
		if err := storage.Installer.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to set up storage")
		}
		if err := storage.Installer.Check(ctx); err != nil {
			log.Fatal().Err(err).Msg("Storage still not set up")
		}
		log.Info().Msg("Setup complete.")
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
