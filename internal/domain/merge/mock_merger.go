package merge

import (
	"context"
	"time"

	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

var MockResult = Result{
	Notes: []note.Note{
		{ID: "mock", Owner: "owner", Body: "body"},
	},
	Checkpoint: note.NewCheckpoint(time.Unix(1581234567, 0)),
}

type MockMerger struct {
	MergeCalled   uint
	MergeOverride func() (*Result, error)
	// Arguments of the last call
	LastIncoming []note.ClientNote
	LastSince    note.Checkpoint
}

func (m *MockMerger) Merge(ctx context.Context, ownerId owner.Id, incoming []note.ClientNote, since note.Checkpoint) (*Result, error) {
	m.MergeCalled++
	m.LastIncoming = incoming
	m.LastSince = since
	if m.MergeOverride != nil {
		return m.MergeOverride()
	} else {
		return &MockResult, nil
	}
}
