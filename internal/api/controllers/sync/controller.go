package sync

import (
	"context"
	"net/http"

	"github.com/lloydmeta/notesync/internal/api/models/common"
	"github.com/lloydmeta/notesync/internal/api/models/note"
	"github.com/lloydmeta/notesync/internal/domain/merge"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// Controller is an interface that defines the methods that are available to the routing
// layer. It is framework-agnostic
type Controller interface {
	// Sync merges the client's Notes into the Owner's partition and returns what the
	// client has not seen yet.
	//
	// Never pass a nil here; it's a pointer because the request can be large
	Sync(ctx context.Context, ownerId owner.Id, request *note.SyncRequest) (*note.SyncResponse, *common.ApiError)
}

func New(merger merge.Merger) Controller {
	return &impl{
		merger: merger,
	}
}

type impl struct {
	merger merge.Merger
}

func (c *impl) Sync(ctx context.Context, ownerId owner.Id, request *note.SyncRequest) (*note.SyncResponse, *common.ApiError) {
	batch, since := request.ToDomain()
	result, err := c.merger.Merge(ctx, ownerId, batch, since)
	if err != nil {
		return nil, handleErr(err)
	} else {
		resp := note.FromMergeResult(result)
		return &resp, nil
	}
}

func handleErr(err error) *common.ApiError {
	switch v := err.(type) {
	case merge.InvalidBatch:
		return withStatus(http.StatusBadRequest, v)
	case merge.NoOwner:
		return withStatus(http.StatusForbidden, v)
	case merge.StorageFailure:
		return withStatus(http.StatusInternalServerError, v)
	default:
		return withStatus(http.StatusInternalServerError, v)
	}
}

func withStatus(statusCode int, err error) *common.ApiError {
	return &common.ApiError{
		StatusCode: statusCode,
		Body: common.Body{
			Message: err.Error(),
		},
	}
}
