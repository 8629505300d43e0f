package account

import (
	"context"
	"time"

	"github.com/lloydmeta/notesync/internal/domain/owner"
)

var MockDomainOwner = owner.Owner{
	ID:        "mock",
	AuthIds:   []owner.AuthId{"notesync:mock"},
	CreatedAt: owner.CreatedAt(time.Unix(1581234567, 0).UTC()),
}

type MockService struct {
	ResolveCalled       uint
	ResolveOverride     func() (*owner.Owner, error)
	CreateCalled        uint
	CreateOverride      func() (*owner.Owner, error)
	GetOrCreateCalled   uint
	GetOrCreateOverride func() (*owner.Owner, bool, error)
	ConnectCalled       uint
	ConnectOverride     func() (*owner.Owner, error)
	DisconnectCalled    uint
	DisconnectOverride  func() (*owner.Owner, error)
	DeleteCalled        uint
	DeleteOverride      func() error
	ReapMergedCalled    uint
	ReapMergedOverride  func() (uint, error)
}

func mockOwner() *owner.Owner {
	o := MockDomainOwner
	o.AuthIds = append([]owner.AuthId(nil), MockDomainOwner.AuthIds...)
	return &o
}

func (m *MockService) Resolve(ctx context.Context, authId owner.AuthId) (*owner.Owner, error) {
	m.ResolveCalled++
	if m.ResolveOverride != nil {
		return m.ResolveOverride()
	} else {
		return mockOwner(), nil
	}
}

func (m *MockService) Create(ctx context.Context) (*owner.Owner, error) {
	m.CreateCalled++
	if m.CreateOverride != nil {
		return m.CreateOverride()
	} else {
		return mockOwner(), nil
	}
}

func (m *MockService) GetOrCreate(ctx context.Context, authId owner.AuthId) (*owner.Owner, bool, error) {
	m.GetOrCreateCalled++
	if m.GetOrCreateOverride != nil {
		return m.GetOrCreateOverride()
	} else {
		return mockOwner(), false, nil
	}
}

func (m *MockService) Connect(ctx context.Context, current *owner.Owner, identity *owner.Identity) (*owner.Owner, error) {
	m.ConnectCalled++
	if m.ConnectOverride != nil {
		return m.ConnectOverride()
	} else {
		return mockOwner(), nil
	}
}

func (m *MockService) Disconnect(ctx context.Context, current *owner.Owner) (*owner.Owner, error) {
	m.DisconnectCalled++
	if m.DisconnectOverride != nil {
		return m.DisconnectOverride()
	} else {
		return mockOwner(), nil
	}
}

func (m *MockService) Delete(ctx context.Context, current *owner.Owner) error {
	m.DeleteCalled++
	if m.DeleteOverride != nil {
		return m.DeleteOverride()
	} else {
		return nil
	}
}

func (m *MockService) ReapMerged(ctx context.Context) (uint, error) {
	m.ReapMergedCalled++
	if m.ReapMergedOverride != nil {
		return m.ReapMergedOverride()
	} else {
		return 0, nil
	}
}
