package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/domain/owner"
)

func newOwner() owner.Owner {
	return owner.New(time.Now().UTC().Truncate(time.Millisecond))
}

func TestOwnerService_Create_Get(t *testing.T) {
	service := NewOwnerService(openTestDb(t))
	o := newOwner()
	o.AddAuthId("google:1")

	assert.NoError(t, service.Create(ctx, &o))

	byId, err := service.Get(ctx, o.ID)
	assert.NoError(t, err)
	assert.Equal(t, o, *byId)

	for _, authId := range o.AuthIds {
		byAuthId, err := service.GetByAuthId(ctx, authId)
		assert.NoError(t, err)
		assert.Equal(t, o, *byAuthId)
	}

	assert.Equal(t, owner.AlreadyExists{ID: o.ID}, service.Create(ctx, &o))

	clash := newOwner()
	clash.AddAuthId("google:1")
	assert.Equal(t, owner.AlreadyExists{ID: clash.ID}, service.Create(ctx, &clash))
	_, err = service.Get(ctx, clash.ID)
	assert.IsType(t, owner.NotFound{}, err)
}

func TestOwnerService_NotFound(t *testing.T) {
	service := NewOwnerService(openTestDb(t))

	_, err := service.Get(ctx, "nope")
	assert.Equal(t, owner.NotFound{ID: "nope"}, err)

	_, err = service.GetByAuthId(ctx, "notesync:nope")
	assert.Equal(t, owner.NotFound{AuthId: "notesync:nope"}, err)

	o := newOwner()
	assert.Equal(t, owner.NotFound{ID: o.ID}, service.Update(ctx, &o))
	assert.NoError(t, service.Delete(ctx, "nope"))
}

func TestOwnerService_Update(t *testing.T) {
	service := NewOwnerService(openTestDb(t))
	o := newOwner()
	assert.NoError(t, service.Create(ctx, &o))

	name := "Someone"
	o.AddAuthId("twitter:9")
	o.ApplyIdentity(&owner.Identity{ID: "9", Provider: "twitter", Name: &name})
	assert.NoError(t, service.Update(ctx, &o))

	connected, err := service.GetByAuthId(ctx, "twitter:9")
	assert.NoError(t, err)
	assert.Equal(t, o, *connected)

	oldToken, _ := o.UnauthenticatedAuthId()
	o.Disconnect()
	assert.NoError(t, service.Update(ctx, &o))

	disconnected, err := service.Get(ctx, o.ID)
	assert.NoError(t, err)
	assert.Equal(t, o, *disconnected)
	_, err = service.GetByAuthId(ctx, oldToken)
	assert.IsType(t, owner.NotFound{}, err)
	_, err = service.GetByAuthId(ctx, "twitter:9")
	assert.IsType(t, owner.NotFound{}, err)
}

func TestOwnerService_Merged_Delete(t *testing.T) {
	service := NewOwnerService(openTestDb(t))
	kept := newOwner()
	mergedAway := newOwner()
	assert.NoError(t, service.Create(ctx, &kept))
	assert.NoError(t, service.Create(ctx, &mergedAway))

	none, err := service.Merged(ctx)
	assert.NoError(t, err)
	assert.Empty(t, none)

	mergedAway.IntoMerged(kept.ID)
	assert.NoError(t, service.Update(ctx, &mergedAway))

	merged, err := service.Merged(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []owner.Owner{mergedAway}, merged)

	assert.NoError(t, service.Delete(ctx, mergedAway.ID))
	_, err = service.Get(ctx, mergedAway.ID)
	assert.IsType(t, owner.NotFound{}, err)
	// auth ids go with the owner
	_, err = service.GetByAuthId(ctx, mergedAway.AuthIds[0])
	assert.IsType(t, owner.NotFound{}, err)
}
