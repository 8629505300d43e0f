package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the server",
	Long:  "Runs the sync server, installing index templates or tables first if they are missing",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
