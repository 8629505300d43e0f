package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	apiOwner "github.com/lloydmeta/notesync/internal/api/models/owner"
	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/domain/owner"
	"github.com/lloydmeta/notesync/internal/infra/server"
)

var (
	linkToken    string
	linkProvider string
	linkData     string
)

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "Manage owners",
}

var ownersLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link an identity to an owner",
	Long: `Links identity provider data to the owner holding the given token. If another owner
already holds the identity, the token owner's notes are moved into it.`,
	Example: `notesync owners link --token notesync:abc --provider google --data '{"id": "123", "email": "me@example.com"}'`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := server.NewStorage(&appConfig)
		if err != nil {
			return err
		}
		defer storage.Close()
		services := server.NewServices(&appConfig, storage)

		user, err := linkIdentity(context.Background(), services.Accounts, owner.AuthId(linkToken), linkProvider, linkData)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(user, "", "  ")
		if err != nil {
			return err
		}
		log.Info().Msg(string(out))
		return nil
	},
}

var ownersReapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Dispose of merged owners",
	Long:  "Deletes owners (and their notes) that were merged into another owner but are still around",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := server.NewStorage(&appConfig)
		if err != nil {
			return err
		}
		defer storage.Close()
		services := server.NewServices(&appConfig, storage)

		reaped, err := services.Accounts.ReapMerged(context.Background())
		log.Info().Uint("reaped", reaped).Msg("Reaped merged owners")
		return err
	},
}

func linkIdentity(ctx context.Context, accounts account.Service, token owner.AuthId, provider string, rawData string) (*apiOwner.User, error) {
	var raw owner.RawAttributes
	if err := json.Unmarshal([]byte(rawData), &raw); err != nil {
		return nil, fmt.Errorf("invalid identity data: %w", err)
	}
	identity, err := owner.NormaliseIdentity(provider, raw)
	if err != nil {
		return nil, err
	}
	current, err := accounts.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	connected, err := accounts.Connect(ctx, current, identity)
	if err != nil {
		return nil, err
	}
	user := apiOwner.FromDomainOwner(connected)
	return &user, nil
}

func init() {
	ownersLinkCmd.Flags().StringVar(&linkToken, "token", "", "token of the owner to link to")
	ownersLinkCmd.Flags().StringVar(&linkProvider, "provider", "", fmt.Sprintf("identity provider, one of %v", providerNames()))
	ownersLinkCmd.Flags().StringVar(&linkData, "data", "{}", "JSON attributes returned by the identity provider")
	_ = ownersLinkCmd.MarkFlagRequired("token")
	_ = ownersLinkCmd.MarkFlagRequired("provider")

	ownersCmd.AddCommand(ownersLinkCmd)
	ownersCmd.AddCommand(ownersReapCmd)
	rootCmd.AddCommand(ownersCmd)
}

func providerNames() []string {
	names := make([]string, 0, len(owner.Providers))
	for name := range owner.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
