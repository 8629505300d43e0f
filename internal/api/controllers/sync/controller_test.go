package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/api/models/common"
	"github.com/lloydmeta/notesync/internal/api/models/note"
	"github.com/lloydmeta/notesync/internal/domain/merge"
	domainNote "github.com/lloydmeta/notesync/internal/domain/note"
)

func TestNew(t *testing.T) {
	assert.NotPanics(t, func() { New(&merge.MockMerger{}) })
}

func Test_impl_Sync(t *testing.T) {
	since := common.TimestampFromTime(time.UnixMilli(500))
	created := common.TimestampFromTime(time.UnixMilli(100))
	modified := common.TimestampFromTime(time.UnixMilli(200))

	merger := merge.MockMerger{}
	controller := New(&merger)
	resp, err := controller.Sync(context.Background(), "owner", &note.SyncRequest{
		LastSynchronized: &since,
		Notes: []note.ClientNote{
			{ID: "n1", Body: "b", Created: &created, Modified: &modified},
		},
	})
	assert.Nil(t, err)
	assert.EqualValues(t, 1, merger.MergeCalled)
	assert.Equal(t, domainNote.NewCheckpoint(time.UnixMilli(500)), merger.LastSince)
	assert.Len(t, merger.LastIncoming, 1)
	assert.Equal(t, domainNote.Id("n1"), merger.LastIncoming[0].ID)

	assert.Equal(t, note.FromMergeResult(&merge.MockResult), *resp)
}

func Test_impl_Sync_Error(t *testing.T) {
	merger := merge.MockMerger{
		MergeOverride: func() (*merge.Result, error) {
			return nil, merge.StorageFailure{Underlying: errors.New("disk on fire")}
		},
	}
	controller := New(&merger)
	resp, err := controller.Sync(context.Background(), "owner", &note.SyncRequest{})
	assert.Nil(t, resp)
	assert.Equal(t, 500, err.StatusCode)
}

func Test_handleErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"random errors should 500", errors.New("wtf"), 500},
		{"InvalidBatch errors should 400", merge.InvalidBatch{Underlying: domainNote.InvalidNote{Reason: "missing id"}}, 400},
		{"NoOwner errors should 403", merge.NoOwner{}, 403},
		{"StorageFailure errors should 500", merge.StorageFailure{Underlying: errors.New("nope")}, 500},
		{"Aborted errors should 500", merge.Aborted{Underlying: context.Canceled}, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handleErr(tt.err)
			assert.Equal(t, tt.wantCode, got.StatusCode)
			assert.Equal(t, tt.err.Error(), got.Body.Message)
		})
	}
}
