package owner

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Id of an Owner; every Note belongs to exactly one Owner partition
type Id string

// AuthId is a credential that resolves to an Owner. It is either an unauthenticated
// token handed to a client, or a "provider:id" pair for a linked identity.
type AuthId string

// Prefix for tokens that are not associated with an identity provider
var UnauthenticatedPrefix = "notesync:"

func (a AuthId) IsUnauthenticated() bool {
	return strings.HasPrefix(string(a), UnauthenticatedPrefix)
}

// Generates a random id
func GenerateId() Id {
	return Id(randomHex())
}

// NewUnauthenticatedAuthId generates a fresh client token
func NewUnauthenticatedAuthId() AuthId {
	return AuthId(UnauthenticatedPrefix + randomHex() + randomHex())
}

func randomHex() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

type CreatedAt time.Time

// The Owner that this one was merged into. Owners with this set are waiting
// for their partition and record to be deleted.
type MergedInto Id

type Owner struct {
	ID         Id
	AuthIds    []AuthId
	Email      *string
	Name       *string
	Provider   *string
	MergedInto *MergedInto
	CreatedAt  CreatedAt
}

// New returns an Owner with a single unauthenticated AuthId
func New(at time.Time) Owner {
	return Owner{
		ID:        GenerateId(),
		AuthIds:   []AuthId{NewUnauthenticatedAuthId()},
		CreatedAt: CreatedAt(at),
	}
}

// UnauthenticatedAuthId returns the token clients use to identify this Owner
func (o *Owner) UnauthenticatedAuthId() (AuthId, bool) {
	for _, a := range o.AuthIds {
		if a.IsUnauthenticated() {
			return a, true
		}
	}
	return "", false
}

// IsConnected returns true if the Owner has at least one linked identity
func (o *Owner) IsConnected() bool {
	for _, a := range o.AuthIds {
		if !a.IsUnauthenticated() {
			return true
		}
	}
	return false
}

func (o *Owner) HasAuthId(authId AuthId) bool {
	for _, a := range o.AuthIds {
		if a == authId {
			return true
		}
	}
	return false
}

func (o *Owner) AddAuthId(authId AuthId) {
	if !o.HasAuthId(authId) {
		o.AuthIds = append(o.AuthIds, authId)
	}
}

// ApplyIdentity copies profile data from a linked identity
func (o *Owner) ApplyIdentity(identity *Identity) {
	provider := identity.Provider
	o.Email = identity.Email
	o.Name = identity.Name
	o.Provider = &provider
}

// Disconnect drops every AuthId (including the current token), clears profile data
// and issues a fresh unauthenticated token.
func (o *Owner) Disconnect() {
	o.AuthIds = []AuthId{NewUnauthenticatedAuthId()}
	o.Email = nil
	o.Name = nil
	o.Provider = nil
}

// IntoMerged marks the Owner as merged into another one
func (o *Owner) IntoMerged(into Id) {
	m := MergedInto(into)
	o.MergedInto = &m
}

func (o *Owner) IsMerged() bool {
	return o.MergedInto != nil
}
