// note holds the API models for a sync exchange. Field names are camelCased to stay
// compatible with existing clients.
package note

import (
	"time"

	"github.com/lloydmeta/notesync/internal/api/models/common"
	"github.com/lloydmeta/notesync/internal/domain/merge"
	"github.com/lloydmeta/notesync/internal/domain/note"
)

// A Note as sent by a client
type ClientNote struct {
	ID        note.Id           `json:"id" binding:"noteId"`
	Body      string            `json:"body"`
	Url       string            `json:"url"`
	IsDeleted bool              `json:"isDeleted"`
	Created   *common.Timestamp `json:"created" binding:"required"`
	Modified  *common.Timestamp `json:"modified" binding:"required"`
}

// A sync request. LastSynchronized is absent or null on a client's first sync.
type SyncRequest struct {
	LastSynchronized *common.Timestamp `json:"lastSynchronized"`
	Notes            []ClientNote      `json:"notes" binding:"dive"`
}

// A Note as returned to a client
type Note struct {
	ID        note.Id          `json:"id"`
	Body      string           `json:"body"`
	Url       string           `json:"url"`
	IsDeleted bool             `json:"isDeleted"`
	Created   common.Timestamp `json:"created"`
	Modified  common.Timestamp `json:"modified"`
}

type SyncResponse struct {
	Notes            []Note           `json:"notes"`
	LastSynchronized common.Timestamp `json:"lastSynchronized"`
}

// Converts the request to the domain batch and Checkpoint
func (r *SyncRequest) ToDomain() ([]note.ClientNote, note.Checkpoint) {
	checkpoint := note.NeverSynchronized
	if r.LastSynchronized != nil {
		checkpoint = note.NewCheckpoint(r.LastSynchronized.Time())
	}
	batch := make([]note.ClientNote, 0, len(r.Notes))
	for _, n := range r.Notes {
		batch = append(batch, n.ToDomain())
	}
	return batch, checkpoint
}

func (n *ClientNote) ToDomain() note.ClientNote {
	var created, modified common.Timestamp
	if n.Created != nil {
		created = *n.Created
	}
	if n.Modified != nil {
		modified = *n.Modified
	}
	return note.ClientNote{
		ID:        n.ID,
		Body:      n.Body,
		Url:       n.Url,
		IsDeleted: n.IsDeleted,
		Created:   note.CreatedAt(created.Time()),
		Modified:  note.ModifiedAt(modified.Time()),
	}
}

// Creates an API Note from the domain model, hiding the content of tombstones
func FromDomainNote(n *note.Note) Note {
	projected := n.Projected()
	return Note{
		ID:        projected.ID,
		Body:      projected.Body,
		Url:       projected.Url,
		IsDeleted: projected.IsDeleted,
		Created:   common.TimestampFromTime(time.Time(projected.Created)),
		Modified:  common.TimestampFromTime(time.Time(projected.Modified)),
	}
}

func FromMergeResult(result *merge.Result) SyncResponse {
	notes := make([]Note, 0, len(result.Notes))
	for i := range result.Notes {
		notes = append(notes, FromDomainNote(&result.Notes[i]))
	}
	return SyncResponse{
		Notes:            notes,
		LastSynchronized: common.Timestamp(result.Checkpoint),
	}
}
