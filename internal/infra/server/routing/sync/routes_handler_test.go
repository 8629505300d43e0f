package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/notesync/internal/api/models/common"
	"github.com/lloydmeta/notesync/internal/api/models/note"
	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/domain/owner"
	"github.com/lloydmeta/notesync/internal/infra/server/binding/validation"
	"github.com/lloydmeta/notesync/internal/infra/server/routing"
)

func init() {
	validation.SetUpValidators()
}

func tokenHeaders() http.Header {
	h := http.Header{}
	h.Set(routing.IdentityHeaderKey, "notesync:mock")
	return h
}

func setupRouter() (*gin.Engine, *mockSyncController, *account.MockService) {
	engine := gin.New()
	mockController := mockSyncController{}
	mockAccounts := account.MockService{}
	topLevelRouterGroup := routing.NewTopLevelRoutesGroup(engine)
	handler := RoutesHandler{Controller: &mockController, Accounts: &mockAccounts}
	handler.RegisterRoutes(topLevelRouterGroup)
	return engine, &mockController, &mockAccounts
}

func performRequest(r http.Handler, method, url string, body string, header http.Header) *httptest.ResponseRecorder {
	var bodyToSend io.Reader
	if body != "" {
		bodyToSend = bytes.NewBufferString(body)
	}
	req, _ := http.NewRequest(method, url, bodyToSend)
	if header != nil {
		req.Header = header
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSync_Ok(t *testing.T) {
	router, mockController, mockAccounts := setupRouter()
	resp := performRequest(router, http.MethodPost, "/api/sync",
		`{"lastSynchronized": 1000, "notes": [{"id": "n1", "body": "hi", "url": "", "isDeleted": false, "created": 10, "modified": "20"}]}`,
		tokenHeaders())
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockAccounts.ResolveCalled)
	assert.EqualValues(t, 1, mockController.syncCalled)
	assert.EqualValues(t, account.MockDomainOwner.ID, mockController.lastOwnerId)
	if assert.Len(t, mockController.lastRequest.Notes, 1) {
		assert.EqualValues(t, "n1", mockController.lastRequest.Notes[0].ID)
		assert.EqualValues(t, 20, mockController.lastRequest.Notes[0].Modified.Millis())
	}
	assert.JSONEq(t,
		`{"notes": [{"id": "n2", "body": "b", "url": "u", "isDeleted": false, "created": 1, "modified": 2}], "lastSynchronized": 3000}`,
		resp.Body.String())
}

func TestSync_FirstSync(t *testing.T) {
	router, mockController, _ := setupRouter()
	resp := performRequest(router, http.MethodPost, "/api/sync", `{"notes": []}`, tokenHeaders())
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.syncCalled)
	assert.Nil(t, mockController.lastRequest.LastSynchronized)
}

func TestSync_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{`},
		{name: "missing id", body: `{"notes": [{"created": 1, "modified": 2}]}`},
		{name: "blank id", body: `{"notes": [{"id": "  ", "created": 1, "modified": 2}]}`},
		{name: "missing modified", body: `{"notes": [{"id": "n1", "created": 1}]}`},
		{name: "null created", body: `{"notes": [{"id": "n1", "created": null, "modified": 2}]}`},
		{name: "non numeric timestamp", body: `{"notes": [{"id": "n1", "created": "yesterday", "modified": 2}]}`},
		{name: "non numeric checkpoint", body: `{"lastSynchronized": true, "notes": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockController, _ := setupRouter()
			resp := performRequest(router, http.MethodPost, "/api/sync", tt.body, tokenHeaders())
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.EqualValues(t, 0, mockController.syncCalled)
		})
	}
}

func TestSync_Unauthorized(t *testing.T) {
	router, mockController, mockAccounts := setupRouter()
	mockAccounts.ResolveOverride = func() (*owner.Owner, error) {
		return nil, account.Unauthorized{}
	}
	resp := performRequest(router, http.MethodPost, "/api/sync", `{"notes": []}`, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.EqualValues(t, 0, mockController.syncCalled)
}

func TestSync_ControllerErr(t *testing.T) {
	router, mockController, _ := setupRouter()
	mockController.syncOverride = func() (*note.SyncResponse, *common.ApiError) {
		return nil, &common.ApiError{
			StatusCode: http.StatusInternalServerError,
			Body:       common.Body{Message: "storage is down"},
		}
	}
	resp := performRequest(router, http.MethodPost, "/api/sync", `{"notes": []}`, tokenHeaders())
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	var body common.Body
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "storage is down", body.Message)
}

var mockSyncResponse = note.SyncResponse{
	Notes: []note.Note{
		{
			ID:       "n2",
			Body:     "b",
			Url:      "u",
			Created:  mustTimestamp(1),
			Modified: mustTimestamp(2),
		},
	},
	LastSynchronized: mustTimestamp(3000),
}

func mustTimestamp(ms float64) common.Timestamp {
	ts, err := common.TimestampFromMillis(ms)
	if err != nil {
		panic(err)
	}
	return ts
}

type mockSyncController struct {
	syncCalled   uint
	syncOverride func() (*note.SyncResponse, *common.ApiError)
	lastOwnerId  owner.Id
	lastRequest  note.SyncRequest
}

func (m *mockSyncController) Sync(ctx context.Context, ownerId owner.Id, request *note.SyncRequest) (*note.SyncResponse, *common.ApiError) {
	m.syncCalled++
	m.lastOwnerId = ownerId
	m.lastRequest = *request
	if m.syncOverride != nil {
		return m.syncOverride()
	} else {
		resp := mockSyncResponse
		return &resp, nil
	}
}
