package note

import (
	"context"
	"fmt"

	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// A Store that takes care of the persistence of Notes. Every query is scoped to
// a single Owner partition.
//
// Individual puts are atomic, but nothing spans multiple calls.
type Store interface {
	// Retrieves a Note, NotFound if the Owner has no Note with that Id
	Get(ctx context.Context, ownerId owner.Id, id Id) (*Note, error)

	// Returns every Note of the Owner synchronized after the given Checkpoint,
	// most recently synchronized first. NeverSynchronized returns all Notes,
	// tombstones included.
	ChangedAfter(ctx context.Context, ownerId owner.Id, checkpoint Checkpoint) ([]Note, error)

	// Returns the Owner's Notes that are not deleted
	Active(ctx context.Context, ownerId owner.Id) ([]Note, error)

	// Upserts a Note by (Owner, Id)
	Put(ctx context.Context, note *Note) error

	// Upserts Notes by (Owner, Id). Returns an error if any of them could not be
	// written; the others may still have been written.
	PutBatch(ctx context.Context, notes []Note) error

	// Removes every Note in the Owner partition
	DeleteAll(ctx context.Context, ownerId owner.Id) error
}

// <-- Domain Errors

// NotFound is returned when the store has no such Note in the Owner partition
type NotFound struct {
	ID    Id
	Owner owner.Id
}

func (e NotFound) Error() string {
	return fmt.Sprintf("Could not find note [%v] for owner [%v]", e.ID, e.Owner)
}

// InvalidNote is returned for a client note that cannot be merged
type InvalidNote struct {
	Reason string
}

func (e InvalidNote) Error() string {
	return fmt.Sprintf("Invalid note: %s", e.Reason)
}

// Invalid data
type InvalidPersistedData struct {
	PersistedData interface{}
}

func (e InvalidPersistedData) Error() string {
	return fmt.Sprintf("Invalid persisted data [%v]", e.PersistedData)
}

//     Errors -->
