package owner

import (
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// The current user as seen by a client. Token is what the client sends back to
// identify itself.
type User struct {
	Email       *string      `json:"email"`
	Name        *string      `json:"name"`
	Provider    *string      `json:"provider"`
	IsConnected bool         `json:"isConnected"`
	Token       owner.AuthId `json:"token"`
}

func FromDomainOwner(o *owner.Owner) User {
	token, _ := o.UnauthenticatedAuthId()
	return User{
		Email:       o.Email,
		Name:        o.Name,
		Provider:    o.Provider,
		IsConnected: o.IsConnected(),
		Token:       token,
	}
}
