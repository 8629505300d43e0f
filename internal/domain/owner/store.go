package owner

import (
	"context"
	"fmt"
)

// A Store that takes care of the persistence of Owners.
type Store interface {
	// Persists a new Owner.
	//
	// Errors out with AlreadyExists if the id or any of its AuthIds are taken
	Create(ctx context.Context, owner *Owner) error

	// Retrieves an Owner by Id, NotFound if no such Owner exists
	Get(ctx context.Context, id Id) (*Owner, error)

	// Retrieves the Owner holding the given AuthId, NotFound if no Owner holds it
	GetByAuthId(ctx context.Context, authId AuthId) (*Owner, error)

	// Overwrites a persisted Owner, NotFound if it does not exist
	Update(ctx context.Context, owner *Owner) error

	// Deletes an Owner record. Deleting a missing Owner is not an error.
	Delete(ctx context.Context, id Id) error

	// Merged returns Owners that were merged into another Owner but are
	// still persisted.
	Merged(ctx context.Context) ([]Owner, error)
}

// <-- Domain Errors

// NotFound is returned when the store cannot find an Owner
type NotFound struct {
	ID     Id
	AuthId AuthId
}

func (e NotFound) Error() string {
	if e.AuthId != "" {
		return "Could not find an owner for the given auth id"
	}
	return fmt.Sprintf("Could not find owner [%v]", e.ID)
}

// AlreadyExists is returned when the store tries to create an Owner
// whose Id or AuthIds are already in use
type AlreadyExists struct {
	ID Id
}

func (e AlreadyExists) Error() string {
	return fmt.Sprintf("Owner with Id [%v] or one of its auth ids already exists", e.ID)
}

// Returned when an identity provider is not in the Providers table
type UnknownProvider struct {
	Provider string
}

func (e UnknownProvider) Error() string {
	return fmt.Sprintf("Unknown identity provider [%s]", e.Provider)
}

type InvalidIdentity struct {
	Provider string
	Reason   string
}

func (e InvalidIdentity) Error() string {
	return fmt.Sprintf("Invalid identity from provider [%s]: %s", e.Provider, e.Reason)
}

// Invalid data
type InvalidPersistedData struct {
	PersistedData interface{}
}

func (e InvalidPersistedData) Error() string {
	return fmt.Sprintf("Invalid persisted data [%v]", e.PersistedData)
}

//     Errors -->
