package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"taskflow-cli/internal/apitest"
	"taskflow-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthedClient(t *testing.T, opts ...apitest.Option) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t, opts...)
	tok := srv.IssueToken("ann")
	return New(Options{BaseURL: srv.URL + "/", Tokens: StaticToken(tok)}), srv
}

func TestLogin_ReturnsTokenAndSendsNoAuthHeader(t *testing.T) {
	srv := apitest.New(t, apitest.WithUser("ann", "s3cret"))
	c := New(Options{BaseURL: srv.URL, Tokens: StaticToken("stale")})

	resp, err := c.Login(context.Background(), "ann", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	req, ok := srv.LastRequest(apitest.OpLogin)
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Empty(t, req.Authorization, "login must not carry the session header")

	var creds model.Credentials
	require.NoError(t, json.Unmarshal(req.Body, &creds))
	assert.Equal(t, model.Credentials{Username: "ann", Password: "s3cret"}, creds)
}

func TestLogin_BadCredentialsIs400(t *testing.T) {
	srv := apitest.New(t, apitest.WithUser("ann", "s3cret"))
	c := New(Options{BaseURL: srv.URL})

	_, err := c.Login(context.Background(), "ann", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.False(t, IsUnauthorized(err))
}

func TestListTasks_BareAndEnvelopeMatch(t *testing.T) {
	seed := []model.TaskInput{{Title: "a"}, {Title: "b", Description: "bee"}, {Title: "c", Completed: true}}

	bare, bareSrv := newAuthedClient(t)
	bareSrv.Seed(seed...)
	env, envSrv := newAuthedClient(t, apitest.WithEnvelope())
	envSrv.Seed(seed...)

	got1, err := bare.ListTasks(context.Background())
	require.NoError(t, err)
	got2, err := env.ListTasks(context.Background())
	require.NoError(t, err)

	titles := func(ts []model.Task) []string {
		out := make([]string, 0, len(ts))
		for _, x := range ts {
			out = append(out, x.Title)
		}
		return out
	}
	assert.Equal(t, []string{"c", "b", "a"}, titles(got1))
	assert.Equal(t, titles(got1), titles(got2))
}

func TestRequests_AttachTokenHeader(t *testing.T) {
	c, srv := newAuthedClient(t)
	_, err := c.ListTasks(context.Background())
	require.NoError(t, err)

	req, ok := srv.LastRequest(apitest.OpList)
	require.True(t, ok)
	assert.Regexp(t, `^Token [0-9a-f]{40}$`, req.Authorization)
}

func TestRequests_NoTokenMeansNoHeaderAnd401(t *testing.T) {
	srv := apitest.New(t)
	c := New(Options{BaseURL: srv.URL, Tokens: StaticToken("")})

	_, err := c.ListTasks(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	req, ok := srv.LastRequest(apitest.OpList)
	require.True(t, ok)
	assert.Empty(t, req.Authorization)
}

func TestCRUD_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, srv := newAuthedClient(t)

	created, err := c.CreateTask(ctx, model.TaskInput{Title: "Buy milk"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.Completed)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Minute)

	got, err := c.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Buy milk", got.Title)

	updated, err := c.UpdateTask(ctx, created.ID, created.Toggled())
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	req, ok := srv.LastRequest(apitest.OpUpdate)
	require.True(t, ok)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/tasks/"+created.IDString()+"/", req.Path)

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	assert.Empty(t, srv.Tasks())

	_, err = c.GetTask(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestErrors_PropagateWithStatusAndBody(t *testing.T) {
	c, srv := newAuthedClient(t)
	srv.Fail(apitest.OpDelete, http.StatusInternalServerError)

	err := c.DeleteTask(context.Background(), 1)
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "delete task", apiErr.Op)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "injected failure")
	assert.Equal(t, 1, srv.Count(apitest.OpDelete), "no retry")
}

func TestTransportFailure_IsNotAnAPIError(t *testing.T) {
	srv := apitest.New(t)
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, Tokens: StaticToken("x"), Timeout: 2 * time.Second})
	_, err := c.ListTasks(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Contains(t, err.Error(), "list tasks")
}

func TestCanceledContext_AbortsRequest(t *testing.T) {
	c, _ := newAuthedClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListTasks(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
