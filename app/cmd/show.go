package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lloydmeta/notesync/internal/config"
	"github.com/lloydmeta/notesync/internal/infra/server"
)

const redacted = "<redacted>"

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showConfigCmd)
	showCmd.AddCommand(showStorageCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show information",
	Long:  `Sometimes you just need to know more`,
}

var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config",
	Long:  `Renders the config that we end up using, minus secrets`,
	Run: func(cmd *cobra.Command, args []string) {
		out, err := json.MarshalIndent(redactedConfig(appConfig), "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Error marshalling config to JSON")
		} else {
			log.Info().Msg(string(out))
		}
	},
}

var showStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Show storage status",
	Long:  `Checks that the configured storage backend is reachable and set up`,
	Run: func(cmd *cobra.Command, args []string) {
		storage, err := server.NewStorage(&appConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to storage")
		}
		defer storage.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger := log.Info().Object("storage", storage)
		if err := storage.Ping(ctx); err != nil {
			logger = log.Error().Object("storage", storage).AnErr("ping", err)
		}
		if err := server.NewSetup(storage.Installer).Check(ctx); err != nil {
			logger = logger.AnErr("setup", err)
		}
		logger.Msg("Storage status")
	},
}

// Returns a copy of the config with passwords and tokens blanked out
func redactedConfig(conf config.App) config.App {
	if conf.Elasticsearch.User != nil {
		user := *conf.Elasticsearch.User
		user.Password = redacted
		conf.Elasticsearch.User = &user
	}
	if conf.ApmClient != nil && conf.ApmClient.SecretToken != nil {
		apm := *conf.ApmClient
		token := redacted
		apm.SecretToken = &token
		conf.ApmClient = &apm
	}
	return conf
}
