package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

func Test_linkIdentity(t *testing.T) {
	accounts := account.MockService{}
	user, err := linkIdentity(context.Background(), &accounts, "notesync:mock", "google", `{"id": "1", "email": "me@example.com"}`)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, accounts.ResolveCalled)
	assert.EqualValues(t, 1, accounts.ConnectCalled)
	assert.EqualValues(t, "notesync:mock", user.Token)
}

func Test_linkIdentity_errors(t *testing.T) {
	tests := []struct {
		name            string
		provider        string
		data            string
		resolveOverride func() (*owner.Owner, error)
	}{
		{name: "bad json", provider: "google", data: `{`},
		{name: "unknown provider", provider: "myspace", data: `{"id": "1"}`},
		{name: "missing id", provider: "google", data: `{}`},
		{
			name:     "unknown token",
			provider: "google",
			data:     `{"id": "1"}`,
			resolveOverride: func() (*owner.Owner, error) {
				return nil, account.Unauthorized{}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := account.MockService{ResolveOverride: tt.resolveOverride}
			_, err := linkIdentity(context.Background(), &accounts, "notesync:mock", tt.provider, tt.data)
			assert.Error(t, err)
			assert.EqualValues(t, 0, accounts.ConnectCalled)
		})
	}
}

func Test_providerNames(t *testing.T) {
	assert.Equal(t, []string{"facebook", "google", "openid", "twitter", "windows_live"}, providerNames())
}
