package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/domain/owner"
	"github.com/lloydmeta/notesync/internal/domain/transfer"
)

// Manager handles the lifecycle of Owner accounts: resolving clients to Owners,
// linking identities and deleting accounts along with their Notes.
type Manager struct {
	owners      owner.Store
	transferrer transfer.Transferrer

	getUTC func() time.Time // for mocking
}

func NewManager(owners owner.Store, transferrer transfer.Transferrer) Manager {
	return Manager{
		owners:      owners,
		transferrer: transferrer,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Resolve returns the Owner holding the AuthId.
//
// Returns Unauthorized if the AuthId is empty, unknown, or belongs to an Owner that
// was merged into another one.
func (m *Manager) Resolve(ctx context.Context, authId owner.AuthId) (*owner.Owner, error) {
	if len(authId) == 0 {
		return nil, Unauthorized{}
	}
	o, err := m.owners.GetByAuthId(ctx, authId)
	if err != nil {
		if _, ok := err.(owner.NotFound); ok {
			return nil, Unauthorized{}
		}
		return nil, err
	}
	if o.IsMerged() {
		return nil, Unauthorized{}
	}
	return o, nil
}

// Create persists a new Owner with a fresh unauthenticated token
func (m *Manager) Create(ctx context.Context) (*owner.Owner, error) {
	o := owner.New(m.getUTC())
	if err := m.owners.Create(ctx, &o); err != nil {
		return nil, err
	}
	log.Info().Str("owner_id", string(o.ID)).Msg("Created owner")
	return &o, nil
}

// GetOrCreate resolves the AuthId, creating a new Owner if it does not resolve.
// The boolean is true if an Owner was created.
func (m *Manager) GetOrCreate(ctx context.Context, authId owner.AuthId) (*owner.Owner, bool, error) {
	o, err := m.Resolve(ctx, authId)
	switch err.(type) {
	case nil:
		return o, false, nil
	case Unauthorized:
		created, err := m.Create(ctx)
		return created, created != nil, err
	default:
		return nil, false, err
	}
}

// Connect links an Identity to the current Owner.
//
// If another Owner already holds the Identity, the current Owner's Notes are
// transferred into it and that Owner is returned; the current Owner is disposed of.
func (m *Manager) Connect(ctx context.Context, current *owner.Owner, identity *owner.Identity) (*owner.Owner, error) {
	authId := identity.AuthId()
	holder, err := m.owners.GetByAuthId(ctx, authId)
	if err != nil {
		if _, ok := err.(owner.NotFound); !ok {
			return nil, err
		}
		holder = nil
	}

	switch {
	case holder == nil || holder.ID == current.ID:
		current.AddAuthId(authId)
		current.ApplyIdentity(identity)
		if err := m.owners.Update(ctx, current); err != nil {
			return nil, err
		}
		return current, nil
	case holder.IsMerged():
		// Its Notes already live elsewhere; finish disposing of it and take over the identity
		if err := m.transferrer.Dispose(ctx, holder.ID); err != nil {
			return nil, err
		}
		return m.Connect(ctx, current, identity)
	default:
		copied, err := m.transferrer.MergeOwners(ctx, current, holder.ID)
		if err != nil {
			// Once marked as merged, the reaper finishes disposing of current
			if failure, ok := err.(transfer.Failure); ok && failure.Step == transfer.DisposeStep {
				log.Warn().Err(err).
					Str("owner_id", string(holder.ID)).
					Str("merged_owner_id", string(current.ID)).
					Msg("Merged owner left for the reaper")
			} else {
				return nil, err
			}
		}
		holder.ApplyIdentity(identity)
		if err := m.owners.Update(ctx, holder); err != nil {
			return nil, err
		}
		log.Info().
			Str("owner_id", string(holder.ID)).
			Str("merged_owner_id", string(current.ID)).
			Uint("note_count", copied).
			Msg("Connected identity held by another owner")
		return holder, nil
	}
}

// Disconnect drops every identity of the Owner and issues it a new token. An Owner
// with no identity is returned unchanged and keeps its token.
func (m *Manager) Disconnect(ctx context.Context, current *owner.Owner) (*owner.Owner, error) {
	if !current.IsConnected() {
		log.Warn().Str("owner_id", string(current.ID)).Msg("Owner is not connected, nothing to disconnect")
		return current, nil
	}
	current.Disconnect()
	if err := m.owners.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes every Note of the Owner, then the Owner
func (m *Manager) Delete(ctx context.Context, current *owner.Owner) error {
	if err := m.transferrer.Dispose(ctx, current.ID); err != nil {
		return err
	}
	log.Info().Str("owner_id", string(current.ID)).Msg("Deleted owner")
	return nil
}

// ReapMerged retries the disposal of Owners that were merged into another Owner but
// are still around. Returns how many were disposed of.
//
// Idempotent, so errors can be handled by logging and waiting for the next run.
func (m *Manager) ReapMerged(ctx context.Context) (uint, error) {
	merged, err := m.owners.Merged(ctx)
	if err != nil {
		return 0, err
	}
	var reaped uint
	var errs []error
	for _, o := range merged {
		if err := m.transferrer.Dispose(ctx, o.ID); err != nil {
			errs = append(errs, fmt.Errorf("owner [%v]: %w", o.ID, err))
		} else {
			reaped++
		}
	}
	return reaped, errors.Join(errs...)
}

// <-- Domain Errors

// Unauthorized is returned when a client cannot be resolved to an Owner
type Unauthorized struct{}

func (e Unauthorized) Error() string {
	return "Could not resolve an owner for the request"
}

//     Errors -->
