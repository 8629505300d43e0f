package merge

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/domain/batch"
	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// Result of a merge: the Notes the client has not seen yet and the Checkpoint it
// should send on its next sync
type Result struct {
	Notes      []note.Note
	Checkpoint note.Checkpoint
}

// Engine reconciles batches of client Notes against an Owner's partition using
// last-write-wins on the Modified clock, ties going to the client.
//
// Separate merges for the same Owner are not serialised: if two of them touch the
// same Note concurrently, whichever write lands last is kept.
type Engine struct {
	store      note.Store
	dispatcher batch.Dispatcher

	getUTC func() time.Time // for mocking
}

func NewEngine(store note.Store, dispatcher batch.Dispatcher) Engine {
	return Engine{
		store:      store,
		dispatcher: dispatcher,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Merge applies the incoming Notes to the Owner's partition and returns everything
// that changed since the given Checkpoint, minus the Notes the client just wrote.
//
// Returns NoOwner, InvalidBatch, StorageFailure or Aborted. The Result is only
// returned once every write has been persisted.
func (e *Engine) Merge(ctx context.Context, ownerId owner.Id, incoming []note.ClientNote, since note.Checkpoint) (*Result, error) {
	if len(ownerId) == 0 {
		return nil, NoOwner{}
	}
	clientNotes, err := normalise(incoming)
	if err != nil {
		return nil, err
	}

	checkpoint := note.NewCheckpoint(e.getUTC())

	candidates, err := e.store.ChangedAfter(ctx, ownerId, since)
	if err != nil {
		return nil, StorageFailure{Underlying: err}
	}

	var toWrite []note.Note
	queued := make(map[note.Id]int, len(clientNotes))
	for i := range clientNotes {
		c := &clientNotes[i]

		var existing *note.Note
		isCreated := false
		if idx, ok := queued[c.ID]; ok {
			existing = &toWrite[idx]
		} else {
			existing, err = e.store.Get(ctx, ownerId, c.ID)
			switch err.(type) {
			case nil:
			case note.NotFound:
				existing = &note.Note{ID: c.ID, Owner: ownerId}
				isCreated = true
			default:
				return nil, StorageFailure{Underlying: err}
			}
		}

		if isCreated || c.Supersedes(existing) {
			existing.Overwrite(c, checkpoint)
			if _, ok := queued[c.ID]; !ok {
				queued[c.ID] = len(toWrite)
				toWrite = append(toWrite, *existing)
			}
		}
	}

	if err := e.dispatcher.Run(ctx, toWrite, e.store.PutBatch); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Aborted{Underlying: ctxErr}
		}
		return nil, StorageFailure{Underlying: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, Aborted{Underlying: err}
	}

	outgoing := make([]note.Note, 0, len(candidates))
	for _, candidate := range candidates {
		if _, written := queued[candidate.ID]; !written {
			outgoing = append(outgoing, candidate.Projected())
		}
	}

	log.Debug().
		Str("owner_id", string(ownerId)).
		Int("incoming", len(incoming)).
		Int("written", len(toWrite)).
		Int("outgoing", len(outgoing)).
		Time("checkpoint", time.Time(checkpoint)).
		Msg("Merged notes")

	return &Result{
		Notes:      outgoing,
		Checkpoint: checkpoint,
	}, nil
}

// Normalises and validates the whole batch before anything is read or written
func normalise(incoming []note.ClientNote) ([]note.ClientNote, error) {
	normalised := make([]note.ClientNote, 0, len(incoming))
	for i, c := range incoming {
		n := c.Normalise()
		if err := n.Validate(); err != nil {
			return nil, InvalidBatch{Index: i, Underlying: err}
		}
		normalised = append(normalised, n)
	}
	return normalised, nil
}
