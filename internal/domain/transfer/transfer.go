package transfer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/domain/batch"
	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// Transferrer moves the active Notes of one Owner into another Owner's partition and
// then disposes of the source Owner.
//
// Transfers are not serialised: callers must not run two transfers for the same pair
// of Owners at once.
type Transferrer struct {
	notes      note.Store
	owners     owner.Store
	dispatcher batch.Dispatcher
}

func NewTransferrer(notes note.Store, owners owner.Store, dispatcher batch.Dispatcher) Transferrer {
	return Transferrer{
		notes:      notes,
		owners:     owners,
		dispatcher: dispatcher,
	}
}

// MergeOwners copies every active Note of source into dest, keeping ids, clocks and
// content. A Note already in dest with the same id is overwritten.
//
// Once every copy is written, source is marked as merged into dest, then its
// partition and record are deleted. If deletion fails, the source stays marked and
// Dispose can be retried later. Returns the number of Notes copied.
func (t *Transferrer) MergeOwners(ctx context.Context, source *owner.Owner, dest owner.Id) (uint, error) {
	if source.ID == dest {
		return 0, SameOwner{ID: dest}
	}
	active, err := t.notes.Active(ctx, source.ID)
	if err != nil {
		return 0, Failure{Source: source.ID, Dest: dest, Step: CopyStep, Underlying: err}
	}
	copies := make([]note.Note, 0, len(active))
	for _, n := range active {
		copies = append(copies, n.CopyTo(dest))
	}
	if err := t.dispatcher.Run(ctx, copies, t.notes.PutBatch); err != nil {
		return 0, Failure{Source: source.ID, Dest: dest, Step: CopyStep, Underlying: err}
	}

	source.IntoMerged(dest)
	if err := t.owners.Update(ctx, source); err != nil {
		return uint(len(copies)), Failure{Source: source.ID, Dest: dest, Step: MarkStep, Underlying: err}
	}

	if err := t.Dispose(ctx, source.ID); err != nil {
		return uint(len(copies)), Failure{Source: source.ID, Dest: dest, Step: DisposeStep, Underlying: err}
	}

	log.Info().
		Str("source_owner_id", string(source.ID)).
		Str("dest_owner_id", string(dest)).
		Int("note_count", len(copies)).
		Msg("Merged owners")
	return uint(len(copies)), nil
}

// Dispose deletes every Note of the Owner, then the Owner itself. Safe to retry.
func (t *Transferrer) Dispose(ctx context.Context, ownerId owner.Id) error {
	if err := t.notes.DeleteAll(ctx, ownerId); err != nil {
		return err
	}
	return t.owners.Delete(ctx, ownerId)
}

// <-- Domain Errors

type Step string

const (
	CopyStep    Step = "copy"
	MarkStep    Step = "mark"
	DisposeStep Step = "dispose"
)

// Failure is returned when a step of a transfer fails
type Failure struct {
	Source     owner.Id
	Dest       owner.Id
	Step       Step
	Underlying error
}

func (e Failure) Error() string {
	return fmt.Sprintf("Failed to merge owner [%v] into [%v] at step [%s]: %v", e.Source, e.Dest, e.Step, e.Underlying)
}

func (e Failure) Unwrap() error {
	return e.Underlying
}

type SameOwner struct {
	ID owner.Id
}

func (e SameOwner) Error() string {
	return fmt.Sprintf("Cannot merge owner [%v] into itself", e.ID)
}

//     Errors -->
