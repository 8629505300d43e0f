package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	t1000 = time.Unix(1, 0).UTC()
	t2000 = time.Unix(2, 0).UTC()
)

func TestNewCheckpoint(t *testing.T) {
	withNanos := time.Date(2020, 1, 2, 3, 4, 5, 123456789, time.FixedZone("somewhere", 3600))
	got := NewCheckpoint(withNanos)
	assert.Equal(t, time.Date(2020, 1, 2, 2, 4, 5, 123000000, time.UTC), time.Time(got))
	assert.False(t, got.IsNever())
	assert.True(t, NeverSynchronized.IsNever())
}

func TestClientNote_Normalise(t *testing.T) {
	tests := []struct {
		name string
		in   ClientNote
		want ClientNote
	}{
		{
			name: "trims",
			in:   ClientNote{ID: " n1 ", Body: " hello\n", Url: "\thttp://x "},
			want: ClientNote{ID: "n1", Body: "hello", Url: "http://x"},
		},
		{
			name: "blanks tombstones",
			in:   ClientNote{ID: "n1", Body: "hello", Url: "http://x", IsDeleted: true},
			want: ClientNote{ID: "n1", IsDeleted: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalise())
		})
	}
}

func TestClientNote_Validate(t *testing.T) {
	c := ClientNote{}
	assert.Equal(t, InvalidNote{Reason: "missing id"}, c.Validate())
	c.ID = "a"
	assert.NoError(t, c.Validate())
}

func TestClientNote_Supersedes(t *testing.T) {
	existing := Note{ID: "n", Modified: ModifiedAt(t1000)}
	tests := []struct {
		name     string
		modified time.Time
		want     bool
	}{
		{"older", t1000.Add(-time.Millisecond), false},
		{"tie", t1000, true},
		{"newer", t2000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ClientNote{ID: "n", Modified: ModifiedAt(tt.modified)}
			assert.Equal(t, tt.want, c.Supersedes(&existing))
		})
	}
}

func TestNote_Overwrite(t *testing.T) {
	n := Note{ID: "n", Owner: "o", Body: "old", Url: "u", Created: CreatedAt(t1000), Modified: ModifiedAt(t1000)}
	checkpoint := NewCheckpoint(t2000)

	n.Overwrite(&ClientNote{ID: "n", Body: "new", Url: "v", Created: CreatedAt(t2000), Modified: ModifiedAt(t2000)}, checkpoint)
	assert.Equal(t, Note{
		ID:           "n",
		Owner:        "o",
		Body:         "new",
		Url:          "v",
		Created:      CreatedAt(t2000),
		Modified:     ModifiedAt(t2000),
		Synchronized: checkpoint,
	}, n)

	n.Overwrite(&ClientNote{ID: "n", Body: "stale body", IsDeleted: true, Modified: ModifiedAt(t2000)}, checkpoint)
	assert.True(t, n.IsDeleted)
	assert.Empty(t, n.Body)
	assert.Empty(t, n.Url)
}

func TestNote_Projected(t *testing.T) {
	deleted := Note{ID: "n", Body: "leftover", Url: "leftover", IsDeleted: true}
	projected := deleted.Projected()
	assert.Empty(t, projected.Body)
	assert.Empty(t, projected.Url)
	assert.Equal(t, "leftover", deleted.Body)

	active := Note{ID: "n", Body: "b", Url: "u"}
	assert.Equal(t, active, active.Projected())
}

func TestNote_CopyTo(t *testing.T) {
	n := Note{ID: "n", Owner: "a", Body: "b", Created: CreatedAt(t1000), Modified: ModifiedAt(t2000), Synchronized: NewCheckpoint(t2000)}
	c := n.CopyTo("b")
	assert.EqualValues(t, "b", c.Owner)
	assert.Equal(t, n.ID, c.ID)
	assert.Equal(t, n.Created, c.Created)
	assert.Equal(t, n.Modified, c.Modified)
	assert.Equal(t, n.Synchronized, c.Synchronized)
	assert.EqualValues(t, "a", n.Owner)
}

func TestNotFound_Error(t *testing.T) {
	assert.Equal(t, "Could not find note [n1] for owner [o1]", NotFound{ID: "n1", Owner: "o1"}.Error())
}
