// internal/syncer/syncer_test.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	custom_errors "github-activity-mirror/internal/errors"
	"github-activity-mirror/internal/model"
)

// MockStore is a mock of the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetCursor(ctx context.Context, stream string) (string, bool, error) {
	args := m.Called(ctx, stream)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *MockStore) SetCursor(ctx context.Context, stream, value string) error {
	args := m.Called(ctx, stream, value)
	return args.Error(0)
}
func (m *MockStore) EnsureCursor(ctx context.Context, stream, def string) (string, error) {
	args := m.Called(ctx, stream, def)
	return args.String(0), args.Error(1)
}
func (m *MockStore) RepositoryExists(ctx context.Context, nameWithOwner string) (bool, error) {
	args := m.Called(ctx, nameWithOwner)
	return args.Bool(0), args.Error(1)
}
func (m *MockStore) InsertRepository(ctx context.Context, repo model.Repository) error {
	args := m.Called(ctx, repo)
	return args.Error(0)
}
func (m *MockStore) InsertRepositories(ctx context.Context, repos []model.Repository) (int64, error) {
	args := m.Called(ctx, repos)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Repository), args.Error(1)
}
func (m *MockStore) DeleteRepository(ctx context.Context, nameWithOwner string) error {
	args := m.Called(ctx, nameWithOwner)
	return args.Error(0)
}
func (m *MockStore) CommitCollection(ctx context.Context, nameWithOwner string) (CommitCollection, error) {
	args := m.Called(ctx, nameWithOwner)
	return args.Get(0).(CommitCollection), args.Error(1)
}

// MockCollection is a mock of the CommitCollection interface.
type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) CommitExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockCollection) InsertCommit(ctx context.Context, commit model.Commit) error {
	args := m.Called(ctx, commit)
	return args.Error(0)
}

// MockRemote is a mock of the Remote interface.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) ViewerID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockRemote) ContributedRepositories(ctx context.Context, after string) (model.Page[model.Repository], error) {
	args := m.Called(ctx, after)
	return args.Get(0).(model.Page[model.Repository]), args.Error(1)
}
func (m *MockRemote) OwnedRepositories(ctx context.Context, after string) (model.Page[model.Repository], error) {
	args := m.Called(ctx, after)
	return args.Get(0).(model.Page[model.Repository]), args.Error(1)
}
func (m *MockRemote) RepositoryCommits(ctx context.Context, owner, name, authorID, after string) (model.Page[model.Commit], error) {
	args := m.Called(ctx, owner, name, authorID, after)
	return args.Get(0).(model.Page[model.Commit]), args.Error(1)
}

func newMockSyncer(store *MockStore, remote *MockRemote) *Syncer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &Syncer{store: store, remote: remote, logger: logger, jobs: jobOrder}
}

func TestSyncer_SyncCommits(t *testing.T) {
	ctx := context.Background()
	commit := model.Commit{ID: "abc", Additions: 1, MessageHeadline: "init", CommittedDate: time.Unix(0, 0).UTC()}

	t.Run("persists the terminal cursor after the last backfill page is stored", func(t *testing.T) {
		store, remote, coll := new(MockStore), new(MockRemote), new(MockCollection)
		syncer := newMockSyncer(store, remote)

		remote.On("ViewerID", ctx).Return("U_1", nil).Once()
		store.On("ListRepositories", ctx).Return([]model.Repository{{NameWithOwner: "me/app"}}, nil).Once()
		store.On("EnsureCursor", ctx, "me/app", "").Return("", nil).Once()
		store.On("CommitCollection", ctx, "me/app").Return(coll, nil).Once()

		fetch := remote.On("RepositoryCommits", ctx, "me", "app", "U_1", "").
			Return(model.Page[model.Commit]{Items: []model.Commit{commit}, PageInfo: model.PageInfo{EndCursor: "c1"}}, nil).Once()
		exists := coll.On("CommitExists", ctx, "abc").Return(false, nil).Once()
		insert := coll.On("InsertCommit", ctx, commit).Return(nil).Once()
		setCursor := store.On("SetCursor", ctx, "me/app", "finished").Return(nil).Once()
		mock.InOrder(fetch, exists, insert, setCursor)

		result, err := syncer.syncCommits(ctx)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.Inserted)
		store.AssertExpectations(t)
		remote.AssertExpectations(t)
		coll.AssertExpectations(t)
	})

	t.Run("deletes a repository that no longer exists upstream", func(t *testing.T) {
		store, remote, coll := new(MockStore), new(MockRemote), new(MockCollection)
		syncer := newMockSyncer(store, remote)

		remote.On("ViewerID", ctx).Return("U_1", nil).Once()
		store.On("ListRepositories", ctx).Return([]model.Repository{{NameWithOwner: "x/y"}}, nil).Once()
		store.On("EnsureCursor", ctx, "x/y", "").Return("finished", nil).Once()
		store.On("CommitCollection", ctx, "x/y").Return(coll, nil).Once()
		remote.On("RepositoryCommits", ctx, "x", "y", "U_1", "").
			Return(model.Page[model.Commit]{}, custom_errors.ErrNotFound).Once()
		store.On("DeleteRepository", ctx, "x/y").Return(nil).Once()

		result, err := syncer.syncCommits(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Deleted)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "SetCursor")
		coll.AssertNotCalled(t, "InsertCommit")
	})

	t.Run("returns an error if the viewer cannot be resolved", func(t *testing.T) {
		store, remote := new(MockStore), new(MockRemote)
		syncer := newMockSyncer(store, remote)
		apiErr := errors.New("bad credentials")

		remote.On("ViewerID", ctx).Return("", apiErr).Once()

		_, err := syncer.syncCommits(ctx)

		assert.ErrorIs(t, err, apiErr)
		store.AssertNotCalled(t, "ListRepositories")
	})

	t.Run("skips repositories with a malformed name", func(t *testing.T) {
		store, remote := new(MockStore), new(MockRemote)
		syncer := newMockSyncer(store, remote)

		remote.On("ViewerID", ctx).Return("U_1", nil).Once()
		store.On("ListRepositories", ctx).Return([]model.Repository{{NameWithOwner: "not-a-repo"}}, nil).Once()

		result, err := syncer.syncCommits(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		remote.AssertNotCalled(t, "RepositoryCommits")
	})
}

func TestSyncer_SyncContributions(t *testing.T) {
	ctx := context.Background()

	t.Run("bulk inserts without lookups and saves the cursor", func(t *testing.T) {
		store, remote := new(MockStore), new(MockRemote)
		syncer := newMockSyncer(store, remote)
		repos := []model.Repository{{NameWithOwner: "a/b"}, {NameWithOwner: "c/d"}}

		store.On("EnsureCursor", ctx, "contributions", "").Return("prev", nil).Once()
		fetch := remote.On("ContributedRepositories", ctx, "prev").
			Return(model.Page[model.Repository]{Items: repos, PageInfo: model.PageInfo{EndCursor: "next"}}, nil).Once()
		insert := store.On("InsertRepositories", ctx, repos).Return(int64(2), nil).Once()
		setCursor := store.On("SetCursor", ctx, "contributions", "next").Return(nil).Once()
		mock.InOrder(fetch, insert, setCursor)

		result, err := syncer.syncContributions(ctx)

		assert.NoError(t, err)
		assert.Equal(t, JobResult{Job: JobContributions, Pages: 1, Inserted: 2}, result)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "RepositoryExists")
	})

	t.Run("returns an error if storing fails and keeps the cursor", func(t *testing.T) {
		store, remote := new(MockStore), new(MockRemote)
		syncer := newMockSyncer(store, remote)
		dbError := errors.New("unexpected database error")
		repos := []model.Repository{{NameWithOwner: "a/b"}}

		store.On("EnsureCursor", ctx, "contributions", "").Return("", nil).Once()
		remote.On("ContributedRepositories", ctx, "").
			Return(model.Page[model.Repository]{Items: repos, PageInfo: model.PageInfo{EndCursor: "next", HasNextPage: true}}, nil).Once()
		store.On("InsertRepositories", ctx, repos).Return(int64(0), dbError).Once()

		_, err := syncer.syncContributions(ctx)

		assert.ErrorIs(t, err, dbError)
		store.AssertNotCalled(t, "SetCursor")
	})
}

func TestParseJobs(t *testing.T) {
	t.Run("empty selects every job", func(t *testing.T) {
		jobs, err := ParseJobs(nil)
		require.NoError(t, err)
		assert.Equal(t, []Job{JobContributions, JobOwnedRepos, JobCommits}, jobs)
	})

	t.Run("runs in dependency order without duplicates", func(t *testing.T) {
		jobs, err := ParseJobs([]string{"commits", " contributions", "commits"})
		require.NoError(t, err)
		assert.Equal(t, []Job{JobContributions, JobCommits}, jobs)
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := ParseJobs([]string{"stars"})
		var jobErr *custom_errors.ErrUnknownJob
		require.ErrorAs(t, err, &jobErr)
		assert.Equal(t, "stars", jobErr.Name)
	})
}

func TestParseRepoIdentifier(t *testing.T) {
	id, err := parseRepoIdentifier("octo/hello")
	require.NoError(t, err)
	assert.Equal(t, RepoIdentifier{Owner: "octo", Name: "hello"}, id)

	for _, bad := range []string{"", "octo", "/hello", "octo/", "a/b/c"} {
		_, err := parseRepoIdentifier(bad)
		var formatErr *custom_errors.ErrInvalidRepoFormat
		assert.ErrorAs(t, err, &formatErr, bad)
	}
}

func TestSyncer_StartOnce(t *testing.T) {
	ctx := context.Background()
	store, remote := new(MockStore), new(MockRemote)
	syncer := newMockSyncer(store, remote)
	syncer.jobs = []Job{JobOwnedRepos}
	apiErr := errors.New("boom")

	store.On("EnsureCursor", ctx, "ownedRepos", "").Return("", nil).Once()
	remote.On("OwnedRepositories", ctx, "").Return(model.Page[model.Repository]{}, apiErr).Once()

	err := syncer.Start(ctx)

	assert.ErrorIs(t, err, apiErr)
}
