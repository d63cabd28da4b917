package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chatapp-client/internal/async"
	"chatapp-client/internal/config"
	"chatapp-client/internal/dispatch"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/models"
	"chatapp-client/internal/rest"
	"chatapp-client/internal/state"
)

type fakeTransport struct {
	mutex    sync.Mutex
	requests []rest.Request
	reply    rest.Reply
	err      error
}

func (f *fakeTransport) Send(_ context.Context, req rest.Request) *async.Future[rest.Reply] {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return async.Failed[rest.Reply](f.err)
	}
	return async.Resolved(f.reply)
}

func (f *fakeTransport) paths() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	paths := []string{}
	for _, req := range f.requests {
		paths = append(paths, req.Method+" "+req.Path)
	}
	return paths
}

func setupTest(t *testing.T, transport *fakeTransport) (*httptest.Server, *state.State) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	sugar := zap.NewNop().Sugar()
	s, err := state.Setup(ctx, config.Default().Cache, nil, nil, sugar)
	require.NoError(t, err)

	h := hub.New(s, sugar)
	h.Run(ctx)

	Setup(sugar, s, h, dispatch.New(transport))
	server := httptest.NewServer(Router(config.Http{}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		h.Close()
	})
	return server, s
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestTest(t *testing.T) {
	server, _ := setupTest(t, &fakeTransport{})

	status, body := do(t, http.MethodGet, server.URL+"/api/test", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello world!", body)
}

func TestGetCached(t *testing.T) {
	server, s := setupTest(t, &fakeTransport{})
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &models.User{ID: 4400, Username: "alice"}))
	m, err := models.FromPayload([]byte(`{"id":"1100","channel_id":"2200","guild_id":"3300","content":"hello"}`))
	require.NoError(t, err)
	require.NoError(t, s.UpsertMessage(ctx, m))

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{name: "user", path: "/api/cache/user/4400", status: http.StatusOK, contains: `"username":"alice"`},
		{name: "message", path: "/api/cache/message/1100", status: http.StatusOK, contains: `"content":"hello"`},
		{name: "not cached", path: "/api/cache/guild/3300", status: http.StatusNotFound},
		{name: "unknown kind", path: "/api/cache/emoji/1", status: http.StatusBadRequest},
		{name: "zero id", path: "/api/cache/user/0", status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, http.MethodGet, server.URL+tc.path, "")
			assert.Equal(t, tc.status, status)
			if tc.contains != "" {
				assert.Contains(t, body, tc.contains)
			}
		})
	}
}

func TestEditMessage(t *testing.T) {
	transport := &fakeTransport{reply: rest.Reply{
		Status: http.StatusOK,
		Body:   []byte(`{"id":"1100","channel_id":"2200","guild_id":"3300","content":"edited","pinned":true}`),
	}}
	server, s := setupTest(t, transport)
	ctx := context.Background()

	m, err := models.FromPayload([]byte(`{"id":"1100","channel_id":"2200","guild_id":"3300","content":"hello","tts":true}`))
	require.NoError(t, err)
	require.NoError(t, s.UpsertMessage(ctx, m))

	status, body := do(t, http.MethodPost, server.URL+"/api/message/2200/1100/edit", `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, `"content":"edited"`)
	assert.Equal(t, []string{"PATCH /channels/2200/messages/1100"}, transport.paths())

	cached, ok := s.Message(ctx, 1100)
	require.True(t, ok)
	assert.Equal(t, "edited", cached.Content())
	assert.True(t, cached.Pinned)
}

func TestEditMessageInvalid(t *testing.T) {
	transport := &fakeTransport{}
	server, _ := setupTest(t, transport)

	status, _ := do(t, http.MethodPost, server.URL+"/api/message/2200/1100/edit", `{"content":"`+strings.Repeat("a", 2001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodPost, server.URL+"/api/message/2200/0/edit", `{"content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Empty(t, transport.paths())
}

func TestDeleteMessage(t *testing.T) {
	transport := &fakeTransport{reply: rest.Reply{Status: http.StatusNoContent}}
	server, s := setupTest(t, transport)
	ctx := context.Background()

	m, err := models.FromPayload([]byte(`{"id":"1100","channel_id":"2200","guild_id":"3300"}`))
	require.NoError(t, err)
	require.NoError(t, s.UpsertMessage(ctx, m))

	status, _ := do(t, http.MethodDelete, server.URL+"/api/message/2200/1100", "")
	assert.Equal(t, http.StatusNoContent, status)

	_, ok := s.Message(ctx, 1100)
	assert.False(t, ok)
}

func TestReactions(t *testing.T) {
	transport := &fakeTransport{reply: rest.Reply{Status: http.StatusNoContent}}
	server, s := setupTest(t, transport)
	require.NoError(t, s.UpsertChannel(context.Background(), &models.Channel{ID: 2200, GuildID: 3300}))

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPut, "/api/message/2200/1100/reactions/%F0%9F%91%8D", http.StatusNoContent},
		{http.MethodDelete, "/api/message/2200/1100/reactions/blob:7700", http.StatusNoContent},
		{http.MethodDelete, "/api/message/2200/1100/reactions/blob:7700?user_id=4400", http.StatusNoContent},
		{http.MethodDelete, "/api/message/2200/1100/reactions", http.StatusNoContent},
		// channel 2300 is not cached, so the message is treated as a DM
		{http.MethodDelete, "/api/message/2300/1100/reactions", http.StatusBadRequest},
		{http.MethodDelete, "/api/message/2300/1100/reactions?guild_id=3300", http.StatusNoContent},
	}

	for _, tc := range tests {
		status, body := do(t, tc.method, server.URL+tc.path, "")
		assert.Equal(t, tc.status, status, "%s %s: %s", tc.method, tc.path, body)
	}

	assert.Equal(t, []string{
		"PUT /channels/2200/messages/1100/reactions/%F0%9F%91%8D/@me",
		"DELETE /channels/2200/messages/1100/reactions/blob:7700/@me",
		"DELETE /channels/2200/messages/1100/reactions/blob:7700/4400",
		"DELETE /channels/2200/messages/1100/reactions",
		"DELETE /channels/2300/messages/1100/reactions",
	}, transport.paths())
}

func TestRemoteRejection(t *testing.T) {
	transport := &fakeTransport{err: &rest.Error{Status: http.StatusForbidden, Code: 50013, Message: "Missing Permissions"}}
	server, _ := setupTest(t, transport)

	status, body := do(t, http.MethodDelete, server.URL+"/api/message/2200/1100?guild_id=3300", "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, "Missing Permissions")
}

func TestMetrics(t *testing.T) {
	server, _ := setupTest(t, &fakeTransport{})

	status, body := do(t, http.MethodGet, server.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
}
