// internal/api/handler_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-activity-mirror/internal/model"
	"github-activity-mirror/internal/store/memory"
)

func newTestServer(t *testing.T, store Reader) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := httptest.NewServer(NewRouter(store, logger))
	t.Cleanup(server.Close)
	return server
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertRepository(ctx, model.Repository{NameWithOwner: "octo/hello", CreatedAt: base}))
	coll, err := store.CommitCollection(ctx, "octo/hello")
	require.NoError(t, err)
	require.NoError(t, coll.InsertCommit(ctx, model.Commit{ID: "c1", Additions: 10, Deletions: 2, MessageHeadline: "first", CommittedDate: base}))
	require.NoError(t, coll.InsertCommit(ctx, model.Commit{ID: "c2", Additions: 5, Deletions: 1, MessageHeadline: "second", CommittedDate: base.Add(time.Hour)}))

	require.NoError(t, store.SetCursor(ctx, "contributions", "Y3Vyc29y"))
	require.NoError(t, store.SetCursor(ctx, "octo/hello", "finished"))
	return store
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHandler_Health(t *testing.T) {
	server := newTestServer(t, memory.New())

	var body map[string]string
	status := getJSON(t, server.URL+"/health", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHandler_Repositories(t *testing.T) {
	t.Run("lists stored repositories", func(t *testing.T) {
		server := newTestServer(t, seededStore(t))

		var repos []model.Repository
		status := getJSON(t, server.URL+"/v1/repos", &repos)

		assert.Equal(t, http.StatusOK, status)
		require.Len(t, repos, 1)
		assert.Equal(t, "octo/hello", repos[0].NameWithOwner)
	})

	t.Run("returns an empty array for an empty mirror", func(t *testing.T) {
		server := newTestServer(t, memory.New())

		var repos []model.Repository
		status := getJSON(t, server.URL+"/v1/repos", &repos)

		assert.Equal(t, http.StatusOK, status)
		assert.NotNil(t, repos)
		assert.Empty(t, repos)
	})
}

func TestHandler_Commits(t *testing.T) {
	server := newTestServer(t, seededStore(t))

	t.Run("returns commits newest first", func(t *testing.T) {
		var commits []model.Commit
		status := getJSON(t, server.URL+"/v1/repos/octo/hello/commits", &commits)

		assert.Equal(t, http.StatusOK, status)
		require.Len(t, commits, 2)
		assert.Equal(t, "c2", commits[0].ID)
		assert.Equal(t, "first", commits[1].MessageHeadline)
	})

	t.Run("returns 404 for an unknown repository", func(t *testing.T) {
		var body map[string]string
		status := getJSON(t, server.URL+"/v1/repos/octo/missing/commits", &body)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Repository not found", body["error"])
	})
}

func TestHandler_Stats(t *testing.T) {
	server := newTestServer(t, seededStore(t))

	var stats model.RepositoryStats
	status := getJSON(t, server.URL+"/v1/repos/octo/hello/stats", &stats)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.RepositoryStats{NameWithOwner: "octo/hello", Commits: 2, Additions: 15, Deletions: 3}, stats)

	var body map[string]string
	status = getJSON(t, server.URL+"/v1/repos/nobody/nothing/stats", &body)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandler_Cursors(t *testing.T) {
	server := newTestServer(t, seededStore(t))

	var cursors []cursorView
	status := getJSON(t, server.URL+"/v1/cursors", &cursors)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []cursorView{
		{Name: "contributions", Phase: "in_progress", EndCursor: "Y3Vyc29y"},
		{Name: "octo/hello", Phase: "finished"},
	}, cursors)
}

type failingReader struct {
	*memory.Store
}

func (failingReader) ListRepositories(context.Context) ([]model.Repository, error) {
	return nil, errors.New("connection reset")
}

func TestHandler_StoreFailure(t *testing.T) {
	server := newTestServer(t, failingReader{Store: memory.New()})

	var body map[string]string
	status := getJSON(t, server.URL+"/v1/repos", &body)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
}
