package note

import (
	"context"
	"sort"
	"sync"

	"github.com/lloydmeta/notesync/internal/domain/owner"
)

type key struct {
	owner owner.Id
	id    Id
}

// MockStore is an in-memory Store that counts calls. Overrides replace the
// default behaviour when set. Safe for concurrent use.
type MockStore struct {
	mu    sync.Mutex
	notes map[key]Note

	GetCalled            uint
	GetOverride          func() (*Note, error)
	ChangedAfterCalled   uint
	ChangedAfterOverride func() ([]Note, error)
	ActiveCalled         uint
	ActiveOverride       func() ([]Note, error)
	PutCalled            uint
	PutOverride          func() error
	PutBatchCalled       uint
	PutBatchOverride     func(notes []Note) error
	DeleteAllCalled      uint
	DeleteAllOverride    func() error
}

func NewMockStore(notes ...Note) *MockStore {
	m := &MockStore{notes: make(map[key]Note)}
	for _, n := range notes {
		m.notes[key{owner: n.Owner, id: n.ID}] = n
	}
	return m
}

// Snapshot returns the stored Note, for assertions
func (m *MockStore) Snapshot(ownerId owner.Id, id Id) (Note, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[key{owner: ownerId, id: id}]
	return n, ok
}

// Partition returns every stored Note of the Owner, ordered by Id
func (m *MockStore) Partition(ownerId owner.Id) []Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := m.filter(ownerId, func(Note) bool { return true })
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *MockStore) Get(ctx context.Context, ownerId owner.Id, id Id) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled++
	if m.GetOverride != nil {
		return m.GetOverride()
	}
	if n, ok := m.notes[key{owner: ownerId, id: id}]; ok {
		return &n, nil
	}
	return nil, NotFound{ID: id, Owner: ownerId}
}

func (m *MockStore) ChangedAfter(ctx context.Context, ownerId owner.Id, checkpoint Checkpoint) ([]Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChangedAfterCalled++
	if m.ChangedAfterOverride != nil {
		return m.ChangedAfterOverride()
	}
	result := m.filter(ownerId, func(n Note) bool {
		return checkpoint.IsNever() || n.Synchronized.After(checkpoint)
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Synchronized == result[j].Synchronized {
			return result[i].ID < result[j].ID
		}
		return result[i].Synchronized.After(result[j].Synchronized)
	})
	return result, nil
}

func (m *MockStore) Active(ctx context.Context, ownerId owner.Id) ([]Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActiveCalled++
	if m.ActiveOverride != nil {
		return m.ActiveOverride()
	}
	return m.filter(ownerId, func(n Note) bool { return !n.IsDeleted }), nil
}

func (m *MockStore) Put(ctx context.Context, note *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalled++
	if m.PutOverride != nil {
		return m.PutOverride()
	}
	m.notes[key{owner: note.Owner, id: note.ID}] = *note
	return nil
}

func (m *MockStore) PutBatch(ctx context.Context, notes []Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutBatchCalled++
	if m.PutBatchOverride != nil {
		return m.PutBatchOverride(notes)
	}
	for _, n := range notes {
		m.notes[key{owner: n.Owner, id: n.ID}] = n
	}
	return nil
}

func (m *MockStore) DeleteAll(ctx context.Context, ownerId owner.Id) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteAllCalled++
	if m.DeleteAllOverride != nil {
		return m.DeleteAllOverride()
	}
	for k := range m.notes {
		if k.owner == ownerId {
			delete(m.notes, k)
		}
	}
	return nil
}

func (m *MockStore) filter(ownerId owner.Id, pred func(Note) bool) []Note {
	var result []Note
	for k, n := range m.notes {
		if k.owner == ownerId && pred(n) {
			result = append(result, n)
		}
	}
	return result
}
