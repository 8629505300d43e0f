package note

import (
	"strings"
	"time"

	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// Id of a Note, assigned by the client and unique only within an Owner partition
type Id string

// Set once, when the Note is first created on some replica
type CreatedAt time.Time

// Set by whichever replica last changed the content; the conflict resolution clock
type ModifiedAt time.Time

func (m ModifiedAt) Before(other ModifiedAt) bool {
	return time.Time(m).Before(time.Time(other))
}

// Checkpoint is the server time of a merge. Every Note written by a merge carries
// that merge's Checkpoint as its Synchronized value.
type Checkpoint time.Time

// NeverSynchronized is the Checkpoint of a client that has never synced; every
// Note is considered changed after it.
var NeverSynchronized = Checkpoint(time.Time{})

// NewCheckpoint truncates to milliseconds, the precision of the wire format, so that
// a Checkpoint handed to a client comes back unchanged.
func NewCheckpoint(t time.Time) Checkpoint {
	return Checkpoint(t.UTC().Truncate(time.Millisecond))
}

func (c Checkpoint) IsNever() bool {
	return time.Time(c).IsZero()
}

func (c Checkpoint) After(other Checkpoint) bool {
	return time.Time(c).After(time.Time(other))
}

type Note struct {
	ID           Id
	Owner        owner.Id
	Body         string
	Url          string
	IsDeleted    bool
	Created      CreatedAt
	Modified     ModifiedAt
	Synchronized Checkpoint
}

// ClientNote is a Note as submitted by a client in a sync batch
type ClientNote struct {
	ID        Id
	Body      string
	Url       string
	IsDeleted bool
	Created   CreatedAt
	Modified  ModifiedAt
}

// Normalise trims text fields and blanks the content of tombstones
func (c ClientNote) Normalise() ClientNote {
	c.ID = Id(strings.TrimSpace(string(c.ID)))
	if c.IsDeleted {
		c.Body = ""
		c.Url = ""
	} else {
		c.Body = strings.TrimSpace(c.Body)
		c.Url = strings.TrimSpace(c.Url)
	}
	return c
}

// Validate returns InvalidNote if the ClientNote cannot be merged
func (c *ClientNote) Validate() error {
	if len(c.ID) == 0 {
		return InvalidNote{Reason: "missing id"}
	}
	return nil
}

// Supersedes returns true if this ClientNote wins over the stored Note. Ties go to
// the ClientNote.
func (c *ClientNote) Supersedes(existing *Note) bool {
	return !c.Modified.Before(existing.Modified)
}

// Overwrite replaces the content and clocks of the Note with those of the ClientNote
// and stamps it with the given Checkpoint.
func (n *Note) Overwrite(c *ClientNote, at Checkpoint) {
	n.ID = c.ID
	n.IsDeleted = c.IsDeleted
	if c.IsDeleted {
		n.Body = ""
		n.Url = ""
	} else {
		n.Body = c.Body
		n.Url = c.Url
	}
	n.Created = c.Created
	n.Modified = c.Modified
	n.Synchronized = at
}

// Projected returns the Note as it may be shown to a client: tombstones never
// expose a body or url, whatever is stored.
func (n Note) Projected() Note {
	if n.IsDeleted {
		n.Body = ""
		n.Url = ""
	}
	return n
}

// CopyTo returns a structural copy of the Note under another Owner
func (n Note) CopyTo(dest owner.Id) Note {
	n.Owner = dest
	return n
}
