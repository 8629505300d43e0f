package note

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/api/models/common"
	"github.com/lloydmeta/notesync/internal/domain/merge"
	"github.com/lloydmeta/notesync/internal/domain/note"
)

func TestSyncRequest_ToDomain(t *testing.T) {
	tests := []struct {
		name           string
		json           string
		wantBatch      []note.ClientNote
		wantCheckpoint note.Checkpoint
	}{
		{
			name:           "first sync without notes",
			json:           `{"notes": []}`,
			wantBatch:      []note.ClientNote{},
			wantCheckpoint: note.NeverSynchronized,
		},
		{
			name:           "null checkpoint",
			json:           `{"lastSynchronized": null}`,
			wantBatch:      []note.ClientNote{},
			wantCheckpoint: note.NeverSynchronized,
		},
		{
			name: "notes and checkpoint",
			json: `{"lastSynchronized": 1500.7, "notes": [{"id": "n1", "body": "b", "url": "u", "isDeleted": true, "created": 100, "modified": "200"}]}`,
			wantBatch: []note.ClientNote{
				{
					ID:        "n1",
					Body:      "b",
					Url:       "u",
					IsDeleted: true,
					Created:   note.CreatedAt(time.UnixMilli(100).UTC()),
					Modified:  note.ModifiedAt(time.UnixMilli(200).UTC()),
				},
			},
			wantCheckpoint: note.Checkpoint(time.UnixMilli(1500).UTC()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SyncRequest
			assert.NoError(t, json.Unmarshal([]byte(tt.json), &req))
			batch, checkpoint := req.ToDomain()
			assert.Equal(t, tt.wantBatch, batch)
			assert.Equal(t, tt.wantCheckpoint, checkpoint)
		})
	}
}

func TestFromMergeResult(t *testing.T) {
	checkpoint := note.NewCheckpoint(time.UnixMilli(10000))
	result := merge.Result{
		Notes: []note.Note{
			{
				ID:        "n1",
				Owner:     "o",
				Body:      "leftover",
				Url:       "leftover",
				IsDeleted: true,
				Created:   note.CreatedAt(time.UnixMilli(100)),
				Modified:  note.ModifiedAt(time.UnixMilli(200)),
			},
		},
		Checkpoint: checkpoint,
	}
	b, err := json.Marshal(FromMergeResult(&result))
	assert.NoError(t, err)
	assert.JSONEq(t,
		`{"notes": [{"id": "n1", "body": "", "url": "", "isDeleted": true, "created": 100, "modified": 200}], "lastSynchronized": 10000}`,
		string(b))
}

func TestFromMergeResult_Empty(t *testing.T) {
	b, err := json.Marshal(FromMergeResult(&merge.Result{Checkpoint: note.NewCheckpoint(time.UnixMilli(1))}))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"notes": [], "lastSynchronized": 1}`, string(b))
}

func TestCheckpointRoundTrip(t *testing.T) {
	checkpoint := note.NewCheckpoint(time.Date(2020, 2, 9, 7, 49, 27, 890999999, time.UTC))
	b, err := json.Marshal(SyncResponse{Notes: []Note{}, LastSynchronized: common.Timestamp(checkpoint)})
	assert.NoError(t, err)

	var resp struct {
		LastSynchronized json.RawMessage `json:"lastSynchronized"`
	}
	assert.NoError(t, json.Unmarshal(b, &resp))
	var req SyncRequest
	assert.NoError(t, json.Unmarshal([]byte(`{"lastSynchronized": `+string(resp.LastSynchronized)+`}`), &req))
	_, back := req.ToDomain()
	assert.Equal(t, checkpoint, back)
}
