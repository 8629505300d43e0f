package merge

import (
	"context"

	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// Merger reconciles a batch of client Notes with an Owner's partition
type Merger interface {
	Merge(ctx context.Context, ownerId owner.Id, incoming []note.ClientNote, since note.Checkpoint) (*Result, error)
}

var _ Merger = &Engine{}
