package account

import (
	"context"

	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// Service is the set of account operations available to the outer layers
type Service interface {
	Resolve(ctx context.Context, authId owner.AuthId) (*owner.Owner, error)
	Create(ctx context.Context) (*owner.Owner, error)
	GetOrCreate(ctx context.Context, authId owner.AuthId) (*owner.Owner, bool, error)
	Connect(ctx context.Context, current *owner.Owner, identity *owner.Identity) (*owner.Owner, error)
	Disconnect(ctx context.Context, current *owner.Owner) (*owner.Owner, error)
	Delete(ctx context.Context, current *owner.Owner) error
	ReapMerged(ctx context.Context) (uint, error)
}

var _ Service = &Manager{}
