package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abshkbh/shoal/pkg/client"
	"github.com/abshkbh/shoal/pkg/command"
	"github.com/abshkbh/shoal/pkg/config"
)

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRejectsUnregisteredCommand(t *testing.T) {
	_, err := New(map[command.Name]HandlerFunc{
		"reboot": func(context.Context, []json.RawMessage) (any, error) { return nil, nil },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reboot")
}

func TestExecute(t *testing.T) {
	var gotArgs []json.RawMessage
	e, err := New(map[command.Name]HandlerFunc{
		command.Ping: func(_ context.Context, args []json.RawMessage) (any, error) {
			gotArgs = args
			return "pong", nil
		},
		command.Status: func(context.Context, []json.RawMessage) (any, error) {
			return nil, errors.New("boom")
		},
	})
	require.NoError(t, err)

	rec := post(t, e, `{"command":"ping","arguments":[1,"two"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"pong"}`, rec.Body.String())
	require.Len(t, gotArgs, 2)
	assert.Equal(t, `1`, string(gotArgs[0]))
	assert.Equal(t, `"two"`, string(gotArgs[1]))

	rec = post(t, e, `{"command":"status","arguments":[]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"boom"}}`, rec.Body.String())

	rec = post(t, e, `{"command":"deploy","arguments":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(t, e, `{"command":"reboot","arguments":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "reboot")

	rec = post(t, e, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteRequestTooLarge(t *testing.T) {
	e, err := New(NewDemo().Handlers())
	require.NoError(t, err)

	rec := post(t, e, `{"command":"ping","arguments":["`+strings.Repeat("x", maxRequestBytes)+`"]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}

func TestExecuteOnlyAcceptsPost(t *testing.T) {
	e, err := New(NewDemo().Handlers())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/execute", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDemoWithClient(t *testing.T) {
	demo := NewDemo()
	e, err := New(demo.Handlers())
	require.NoError(t, err)
	srv := httptest.NewServer(e)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	c := client.New(config.ClientConfig{ServerHost: host, ServerPort: port})
	ctx := context.Background()

	result, err := c.Ping(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, `"pong"`, string(result))

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsHealthy())

	demo.SetStatus("degraded")
	status, err = c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsHealthy())
	assert.Equal(t, `"degraded"`, string(status.Detail()))

	result, err = c.Deploy(ctx, json.RawMessage(`{"version":"1.0"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"deployed":{"version":"1.0"}}`, string(result))
	assert.JSONEq(t, `{"version":"1.0"}`, string(demo.LastDeploy()))

	_, err = c.Execute(ctx, command.Deploy)
	var remoteErr *client.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Contains(t, remoteErr.Message, "configuration")
}
