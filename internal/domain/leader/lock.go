package leader

import "context"

// Lock elects a single leader among processes sharing the same storage. Leadership
// is a lease: it lapses unless the holder acquires it again before it expires.
type Lock interface {

	// Acquire returns true if this process holds the lock, either because it already
	// did (the lease is renewed) or because the lock was free or had lapsed.
	Acquire(ctx context.Context) (bool, error)
}

// Solo is a Lock for storage that only one process uses, so it is always the leader
type Solo struct{}

func (s Solo) Acquire(ctx context.Context) (bool, error) {
	return true, nil
}

// For testing
type MockLock struct {
	AcquireCalled   uint
	AcquireOverride func() (bool, error)
}

func (m *MockLock) Acquire(ctx context.Context) (bool, error) {
	m.AcquireCalled++
	if m.AcquireOverride != nil {
		return m.AcquireOverride()
	} else {
		return true, nil
	}
}
