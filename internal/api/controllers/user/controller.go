package user

import (
	"context"
	"net/http"

	"github.com/lloydmeta/notesync/internal/api/models/common"
	"github.com/lloydmeta/notesync/internal/api/models/owner"
	"github.com/lloydmeta/notesync/internal/domain/account"
	domainOwner "github.com/lloydmeta/notesync/internal/domain/owner"
	"github.com/lloydmeta/notesync/internal/domain/transfer"
)

// Controller is an interface that defines the methods that are available to the routing
// layer. It is framework-agnostic
type Controller interface {
	// GetOrCreate returns the User for the token, creating a new one if the token
	// does not resolve. The boolean is true if a User was created.
	GetOrCreate(ctx context.Context, token domainOwner.AuthId) (*owner.User, bool, *common.ApiError)

	// Disconnect drops the linked identities of the Owner and issues a new token
	Disconnect(ctx context.Context, current *domainOwner.Owner) (*owner.User, *common.ApiError)

	// Delete removes the Owner along with all of its Notes
	Delete(ctx context.Context, current *domainOwner.Owner) *common.ApiError
}

func New(accounts account.Service) Controller {
	return &impl{
		accounts: accounts,
	}
}

type impl struct {
	accounts account.Service
}

func (c *impl) GetOrCreate(ctx context.Context, token domainOwner.AuthId) (*owner.User, bool, *common.ApiError) {
	result, created, err := c.accounts.GetOrCreate(ctx, token)
	if err != nil {
		return nil, false, handleErr(err)
	} else {
		u := owner.FromDomainOwner(result)
		return &u, created, nil
	}
}

func (c *impl) Disconnect(ctx context.Context, current *domainOwner.Owner) (*owner.User, *common.ApiError) {
	result, err := c.accounts.Disconnect(ctx, current)
	if err != nil {
		return nil, handleErr(err)
	} else {
		u := owner.FromDomainOwner(result)
		return &u, nil
	}
}

func (c *impl) Delete(ctx context.Context, current *domainOwner.Owner) *common.ApiError {
	if err := c.accounts.Delete(ctx, current); err != nil {
		return handleErr(err)
	}
	return nil
}

func handleErr(err error) *common.ApiError {
	switch v := err.(type) {
	case account.Unauthorized:
		return withStatus(http.StatusForbidden, v)
	case domainOwner.NotFound:
		return withStatus(http.StatusForbidden, v)
	case transfer.SameOwner:
		return withStatus(http.StatusBadRequest, v)
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
