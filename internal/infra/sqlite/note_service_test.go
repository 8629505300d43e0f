package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

func buildNote(ownerId owner.Id, id note.Id, synchronized time.Time) note.Note {
	synchronized = synchronized.UTC()
	return note.Note{
		ID:           id,
		Owner:        ownerId,
		Body:         fmt.Sprintf("body of %s", id),
		Url:          fmt.Sprintf("https://example.com/%s", id),
		Created:      note.CreatedAt(synchronized.Add(-time.Hour).Truncate(time.Millisecond)),
		Modified:     note.ModifiedAt(synchronized.Add(-time.Minute).Truncate(time.Millisecond)),
		Synchronized: note.NewCheckpoint(synchronized),
	}
}

func TestNoteService_PutGet(t *testing.T) {
	service := NewNoteService(openTestDb(t))
	now := time.Now().UTC()
	n := buildNote("o", "n1", now)

	assert.NoError(t, service.Put(ctx, &n))
	retrieved, err := service.Get(ctx, "o", "n1")
	assert.NoError(t, err)
	assert.Equal(t, n, *retrieved)

	// overwrite in place
	n.Body = "changed"
	n.Synchronized = note.NewCheckpoint(now.Add(time.Second))
	assert.NoError(t, service.Put(ctx, &n))
	retrieved, err = service.Get(ctx, "o", "n1")
	assert.NoError(t, err)
	assert.Equal(t, n, *retrieved)

	_, err = service.Get(ctx, "o", "missing")
	assert.Equal(t, note.NotFound{ID: "missing", Owner: "o"}, err)
	_, err = service.Get(ctx, "someone-else", "n1")
	assert.IsType(t, note.NotFound{}, err)
}

func TestNoteService_Put_blanksTombstones(t *testing.T) {
	service := NewNoteService(openTestDb(t))
	n := buildNote("o", "n1", time.Now())
	n.IsDeleted = true

	assert.NoError(t, service.Put(ctx, &n))
	retrieved, err := service.Get(ctx, "o", "n1")
	assert.NoError(t, err)
	assert.True(t, retrieved.IsDeleted)
	assert.Empty(t, retrieved.Body)
	assert.Empty(t, retrieved.Url)
}

func TestNoteService_ChangedAfter(t *testing.T) {
	service := NewNoteService(openTestDb(t))
	base := time.Now().UTC()
	notes := []note.Note{
		buildNote("o", "a", base),
		buildNote("o", "b", base.Add(time.Second)),
		buildNote("o", "c", base.Add(time.Second)),
		buildNote("o", "d", base.Add(2*time.Second)),
		buildNote("other", "a", base.Add(time.Hour)),
	}
	assert.NoError(t, service.PutBatch(ctx, notes))

	ids := func(notes []note.Note) []note.Id {
		var ids []note.Id
		for _, n := range notes {
			ids = append(ids, n.ID)
		}
		return ids
	}

	all, err := service.ChangedAfter(ctx, "o", note.NeverSynchronized)
	assert.NoError(t, err)
	assert.Equal(t, []note.Id{"d", "b", "c", "a"}, ids(all))

	since, err := service.ChangedAfter(ctx, "o", note.NewCheckpoint(base))
	assert.NoError(t, err)
	assert.Equal(t, []note.Id{"d", "b", "c"}, ids(since))

	none, err := service.ChangedAfter(ctx, "o", note.NewCheckpoint(base.Add(2*time.Second)))
	assert.NoError(t, err)
	assert.Empty(t, none)

	empty, err := service.ChangedAfter(ctx, "nobody", note.NeverSynchronized)
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNoteService_Active_DeleteAll(t *testing.T) {
	service := NewNoteService(openTestDb(t))
	now := time.Now()
	live := buildNote("o", "live", now)
	dead := buildNote("o", "dead", now)
	dead.IsDeleted = true
	other := buildNote("other", "live", now)
	assert.NoError(t, service.PutBatch(ctx, []note.Note{live, dead, other}))

	active, err := service.Active(ctx, "o")
	assert.NoError(t, err)
	if assert.Len(t, active, 1) {
		assert.Equal(t, live, active[0])
	}

	assert.NoError(t, service.DeleteAll(ctx, "o"))
	remaining, err := service.ChangedAfter(ctx, "o", note.NeverSynchronized)
	assert.NoError(t, err)
	assert.Empty(t, remaining)

	untouched, err := service.ChangedAfter(ctx, "other", note.NeverSynchronized)
	assert.NoError(t, err)
	assert.Len(t, untouched, 1)

	assert.NoError(t, service.DeleteAll(ctx, "nobody"))
	assert.NoError(t, service.PutBatch(ctx, nil))
}
