package account

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/domain/leader"
	"github.com/lloydmeta/notesync/internal/infra/apm/tracing"
)

func Test_NewReaper(t *testing.T) {
	r, err := NewReaper(&account.MockService{}, leader.Solo{}, tracing.NoopTracer{}, "")
	assert.NoError(t, err)
	assert.NotNil(t, r)

	_, err = NewReaper(&account.MockService{}, leader.Solo{}, tracing.NoopTracer{}, "not a schedule")
	assert.IsType(t, InvalidSchedule{}, err)
}

func Test_reaperImpl_runsOnSchedule(t *testing.T) {
	runs := make(chan struct{}, 10)
	accounts := account.MockService{
		ReapMergedOverride: func() (uint, error) {
			runs <- struct{}{}
			return 1, nil
		},
	}
	r, err := NewReaper(&accounts, leader.Solo{}, tracing.NoopTracer{}, "@every 1s")
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	defer r.Stop()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Error("Reaper did not run")
	}
}

func Test_reaperImpl_reap(t *testing.T) {
	tests := []struct {
		name                 string
		acquireOverride      func() (bool, error)
		reapOverride         func() (uint, error)
		wantReapMergedCalled uint
	}{
		{
			name: "nothing to reap",
			reapOverride: func() (uint, error) {
				return 0, nil
			},
			wantReapMergedCalled: 1,
		},
		{
			name: "partial failure",
			reapOverride: func() (uint, error) {
				return 1, errors.New("boom")
			},
			wantReapMergedCalled: 1,
		},
		{
			name: "not the leader",
			acquireOverride: func() (bool, error) {
				return false, nil
			},
			wantReapMergedCalled: 0,
		},
		{
			name: "leadership unknown",
			acquireOverride: func() (bool, error) {
				return false, errors.New("es down")
			},
			wantReapMergedCalled: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := account.MockService{ReapMergedOverride: tt.reapOverride}
			lock := leader.MockLock{AcquireOverride: tt.acquireOverride}
			r := &reaperImpl{accounts: &accounts, lock: &lock, tracer: tracing.NoopTracer{}}
			assert.NotPanics(t, r.reap)
			assert.EqualValues(t, 1, lock.AcquireCalled)
			assert.Equal(t, tt.wantReapMergedCalled, accounts.ReapMergedCalled)
		})
	}
}

func Test_formatTimeValues(t *testing.T) {
	at := time.Date(2020, 2, 9, 7, 49, 27, 0, time.UTC)
	formatted := formatTimeValues([]interface{}{"now", at, 1, "one", "dangling"})
	assert.Equal(t, map[string]interface{}{
		"now": "2020-02-09T07:49:27Z",
		"1":   "one",
	}, formatted)
}
