package owner

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store that counts calls. Overrides replace the
// default behaviour when set.
type MockStore struct {
	mu     sync.Mutex
	owners map[Id]Owner

	CreateCalled        uint
	CreateOverride      func() error
	GetCalled           uint
	GetOverride         func() (*Owner, error)
	GetByAuthIdCalled   uint
	GetByAuthIdOverride func() (*Owner, error)
	UpdateCalled        uint
	UpdateOverride      func() error
	DeleteCalled        uint
	DeleteOverride      func() error
	MergedCalled        uint
	MergedOverride      func() ([]Owner, error)
}

func NewMockStore(owners ...Owner) *MockStore {
	m := &MockStore{owners: make(map[Id]Owner)}
	for _, o := range owners {
		m.owners[o.ID] = o
	}
	return m
}

// Snapshot returns a copy of the stored Owner, for assertions
func (m *MockStore) Snapshot(id Id) (Owner, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[id]
	return o, ok
}

func (m *MockStore) Create(ctx context.Context, owner *Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalled++
	if m.CreateOverride != nil {
		return m.CreateOverride()
	}
	if _, exists := m.owners[owner.ID]; exists {
		return AlreadyExists{ID: owner.ID}
	}
	for _, authId := range owner.AuthIds {
		if _, found := m.findByAuthId(authId); found {
			return AlreadyExists{ID: owner.ID}
		}
	}
	m.owners[owner.ID] = clone(owner)
	return nil
}

func (m *MockStore) Get(ctx context.Context, id Id) (*Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled++
	if m.GetOverride != nil {
		return m.GetOverride()
	}
	if o, ok := m.owners[id]; ok {
		c := clone(&o)
		return &c, nil
	}
	return nil, NotFound{ID: id}
}

func (m *MockStore) GetByAuthId(ctx context.Context, authId AuthId) (*Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetByAuthIdCalled++
	if m.GetByAuthIdOverride != nil {
		return m.GetByAuthIdOverride()
	}
	if o, ok := m.findByAuthId(authId); ok {
		return &o, nil
	}
	return nil, NotFound{AuthId: authId}
}

func (m *MockStore) Update(ctx context.Context, owner *Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled++
	if m.UpdateOverride != nil {
		return m.UpdateOverride()
	}
	if _, ok := m.owners[owner.ID]; !ok {
		return NotFound{ID: owner.ID}
	}
	m.owners[owner.ID] = clone(owner)
	return nil
}

func (m *MockStore) Delete(ctx context.Context, id Id) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalled++
	if m.DeleteOverride != nil {
		return m.DeleteOverride()
	}
	delete(m.owners, id)
	return nil
}

func (m *MockStore) Merged(ctx context.Context) ([]Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MergedCalled++
	if m.MergedOverride != nil {
		return m.MergedOverride()
	}
	var merged []Owner
	for _, o := range m.owners {
		if o.IsMerged() {
			merged = append(merged, clone(&o))
		}
	}
	return merged, nil
}

func (m *MockStore) findByAuthId(authId AuthId) (Owner, bool) {
	for _, o := range m.owners {
		if o.HasAuthId(authId) {
			return clone(&o), true
		}
	}
	return Owner{}, false
}

func clone(o *Owner) Owner {
	c := *o
	c.AuthIds = append([]AuthId(nil), o.AuthIds...)
	return c
}
