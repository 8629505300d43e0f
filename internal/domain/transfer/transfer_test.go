package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/domain/batch"
	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

var now = time.Now().UTC()

func ms(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}

func aNote(ownerId owner.Id, id note.Id, body string, deleted bool) note.Note {
	return note.Note{
		ID:           id,
		Owner:        ownerId,
		Body:         body,
		Url:          "http://" + body,
		IsDeleted:    deleted,
		Created:      note.CreatedAt(ms(100)),
		Modified:     note.ModifiedAt(ms(200)),
		Synchronized: note.Checkpoint(ms(300)),
	}
}

func setup(notes ...note.Note) (Transferrer, *note.MockStore, *owner.MockStore, owner.Owner, owner.Owner) {
	source := owner.New(now)
	dest := owner.New(now)
	var placed []note.Note
	for _, n := range notes {
		switch n.Owner {
		case "source":
			n.Owner = source.ID
		case "dest":
			n.Owner = dest.ID
		}
		placed = append(placed, n)
	}
	noteStore := note.NewMockStore(placed...)
	ownerStore := owner.NewMockStore(source, dest)
	return NewTransferrer(noteStore, ownerStore, batch.Dispatcher{ChunkSize: 1, Concurrency: 2}), noteStore, ownerStore, source, dest
}

func TestTransferrer_MergeOwners_PreservesIdsAndClocks(t *testing.T) {
	transferrer, noteStore, ownerStore, source, dest := setup(
		aNote("source", "a", "A", false),
		aNote("source", "b", "B", false),
		aNote("source", "gone", "", true),
		aNote("dest", "d", "D", false),
	)

	copied, err := transferrer.MergeOwners(context.Background(), &source, dest.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, copied)

	for _, id := range []note.Id{"a", "b"} {
		got, found := noteStore.Snapshot(dest.ID, id)
		assert.True(t, found)
		want := aNote(dest.ID, id, got.Body, false)
		assert.Equal(t, want, got)
	}
	_, found := noteStore.Snapshot(dest.ID, "gone")
	assert.False(t, found)
	_, found = noteStore.Snapshot(dest.ID, "d")
	assert.True(t, found)

	assert.Empty(t, noteStore.Partition(source.ID))
	_, found = ownerStore.Snapshot(source.ID)
	assert.False(t, found)
	_, found = ownerStore.Snapshot(dest.ID)
	assert.True(t, found)
}

// The copy wins on id collisions, even when the destination Note is newer
func TestTransferrer_MergeOwners_CollisionOverwritesDest(t *testing.T) {
	newerInDest := aNote("dest", "same", "dest version", false)
	newerInDest.Modified = note.ModifiedAt(ms(999999))
	transferrer, noteStore, _, source, dest := setup(
		aNote("source", "same", "source version", false),
		newerInDest,
	)

	_, err := transferrer.MergeOwners(context.Background(), &source, dest.ID)
	assert.NoError(t, err)

	got, _ := noteStore.Snapshot(dest.ID, "same")
	assert.Equal(t, "source version", got.Body)
	assert.Equal(t, note.ModifiedAt(ms(200)), got.Modified)
}

func TestTransferrer_MergeOwners_SameOwner(t *testing.T) {
	transferrer, noteStore, _, source, _ := setup()
	_, err := transferrer.MergeOwners(context.Background(), &source, source.ID)
	assert.Equal(t, SameOwner{ID: source.ID}, err)
	assert.EqualValues(t, 0, noteStore.ActiveCalled)
}

func TestTransferrer_MergeOwners_CopyFailureLeavesSourceIntact(t *testing.T) {
	transferrer, noteStore, ownerStore, source, dest := setup(aNote("source", "a", "A", false))
	boom := errors.New("boom")
	noteStore.PutBatchOverride = func([]note.Note) error { return boom }

	_, err := transferrer.MergeOwners(context.Background(), &source, dest.ID)
	assert.Equal(t, Failure{Source: source.ID, Dest: dest.ID, Step: CopyStep, Underlying: boom}, err)
	assert.EqualValues(t, 0, noteStore.DeleteAllCalled)

	persisted, found := ownerStore.Snapshot(source.ID)
	assert.True(t, found)
	assert.False(t, persisted.IsMerged())
	assert.Len(t, noteStore.Partition(source.ID), 1)
}

func TestTransferrer_MergeOwners_DisposeFailureLeavesSourceMarked(t *testing.T) {
	transferrer, noteStore, ownerStore, source, dest := setup(aNote("source", "a", "A", false))
	boom := errors.New("boom")
	noteStore.DeleteAllOverride = func() error { return boom }

	copied, err := transferrer.MergeOwners(context.Background(), &source, dest.ID)
	assert.EqualValues(t, 1, copied)
	assert.Equal(t, Failure{Source: source.ID, Dest: dest.ID, Step: DisposeStep, Underlying: boom}, err)

	persisted, found := ownerStore.Snapshot(source.ID)
	assert.True(t, found)
	assert.True(t, persisted.IsMerged())
	assert.Equal(t, owner.MergedInto(dest.ID), *persisted.MergedInto)

	noteStore.DeleteAllOverride = nil
	assert.NoError(t, transferrer.Dispose(context.Background(), source.ID))
	_, found = ownerStore.Snapshot(source.ID)
	assert.False(t, found)
	assert.Empty(t, noteStore.Partition(source.ID))
}
