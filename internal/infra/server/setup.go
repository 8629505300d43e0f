package server

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/infra/elasticsearch/index"
	"github.com/lloydmeta/notesync/internal/infra/sqlite"
)

// Setup abstracts away:
//
// 1. Setting up the storage backend for running notesync
// 2. Checking that things are set up
type Setup interface {

	// Check returns an error if all the necessary setup is not complete
	Check(ctx context.Context) error

	// RunIfNeeded attempts to run the subroutines necessary, no more no less
	RunIfNeeded(ctx context.Context) error
}

// Installer is implemented by things that put storage structures (index templates,
// tables) in place
type Installer interface {
	Check(ctx context.Context) error
	Run(ctx context.Context) error
}

type impl struct {
	installer Installer
}

// NewSetup returns a Setup implementation
func NewSetup(installer Installer) Setup {
	return &impl{installer: installer}
}

func (i *impl) Check(ctx context.Context) error {
	return i.installer.Check(ctx)
}

func (i *impl) RunIfNeeded(ctx context.Context) error {
	if err := i.installer.Check(ctx); err != nil {
		if !isNotInstalled(err) {
			log.Info().Msg("Skipping setup")
			return err
		}
		log.Info().Msg("Setting up storage")
		if err := i.installer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to set up storage")
			return err
		}
	}
	log.Info().Msg("Setup complete")
	return nil
}

func isNotInstalled(err error) bool {
	switch err.(type) {
	case index.TemplatesNotInstalled, sqlite.SchemaNotInstalled:
		return true
	default:
		return false
	}
}
