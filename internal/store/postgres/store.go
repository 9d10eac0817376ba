// internal/store/postgres/store.go
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github-activity-mirror/internal/database"
	"github-activity-mirror/internal/model"
	"github-activity-mirror/internal/syncer"
)

// Store persists the mirror in Postgres through the generated query layer.
type Store struct {
	q database.Querier
}

var _ syncer.Store = (*Store)(nil)

// New creates a Store on top of q, usually database.New(pool).
func New(q database.Querier) *Store {
	return &Store{q: q}
}

func (s *Store) GetCursor(ctx context.Context, stream string) (string, bool, error) {
	c, err := s.q.GetCursor(ctx, stream)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return c.EndCursor, true, nil
}

func (s *Store) SetCursor(ctx context.Context, stream, value string) error {
	return s.q.UpsertCursor(ctx, database.UpsertCursorParams{Name: stream, EndCursor: value})
}

func (s *Store) EnsureCursor(ctx context.Context, stream, def string) (string, error) {
	return s.q.EnsureCursor(ctx, database.EnsureCursorParams{Name: stream, EndCursor: def})
}

func (s *Store) ListCursors(ctx context.Context) ([]model.Cursor, error) {
	rows, err := s.q.ListCursors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Cursor, len(rows))
	for i, r := range rows {
		out[i] = model.Cursor{Name: r.Name, EndCursor: r.EndCursor}
	}
	return out, nil
}

func (s *Store) RepositoryExists(ctx context.Context, nameWithOwner string) (bool, error) {
	return s.q.RepositoryExists(ctx, nameWithOwner)
}

func (s *Store) InsertRepository(ctx context.Context, repo model.Repository) error {
	return s.q.CreateRepository(ctx, database.CreateRepositoryParams{
		NameWithOwner: repo.NameWithOwner,
		CreatedAt:     toTimestamptz(repo.CreatedAt),
	})
}

func (s *Store) InsertRepositories(ctx context.Context, repos []model.Repository) (int64, error) {
	arg := database.CreateRepositoriesParams{
		NamesWithOwner: make([]string, len(repos)),
		CreatedAts:     make([]time.Time, len(repos)),
	}
	for i, r := range repos {
		arg.NamesWithOwner[i] = r.NameWithOwner
		arg.CreatedAts[i] = r.CreatedAt
	}
	return s.q.CreateRepositories(ctx, arg)
}

func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	rows, err := s.q.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Repository, len(rows))
	for i, r := range rows {
		out[i] = toRepository(r)
	}
	return out, nil
}

func (s *Store) GetRepository(ctx context.Context, nameWithOwner string) (model.Repository, bool, error) {
	r, err := s.q.GetRepository(ctx, nameWithOwner)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, false, nil
	}
	if err != nil {
		return model.Repository{}, false, err
	}
	return toRepository(r), true, nil
}

func (s *Store) DeleteRepository(ctx context.Context, nameWithOwner string) error {
	_, err := s.q.DeleteRepository(ctx, nameWithOwner)
	return err
}

func (s *Store) CommitCollection(_ context.Context, nameWithOwner string) (syncer.CommitCollection, error) {
	return &commitCollection{q: s.q, repository: nameWithOwner}, nil
}

func (s *Store) ListCommits(ctx context.Context, nameWithOwner string) ([]model.Commit, error) {
	rows, err := s.q.GetCommitsByRepository(ctx, nameWithOwner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Commit, len(rows))
	for i, r := range rows {
		out[i] = model.Commit{
			ID:              r.ID,
			Additions:       int(r.Additions),
			Deletions:       int(r.Deletions),
			MessageHeadline: r.MessageHeadline,
			CommittedDate:   r.CommittedDate.Time.UTC(),
		}
	}
	return out, nil
}

func (s *Store) RepositoryStats(ctx context.Context, nameWithOwner string) (model.RepositoryStats, error) {
	row, err := s.q.GetRepositoryStats(ctx, nameWithOwner)
	if err != nil {
		return model.RepositoryStats{}, err
	}
	return model.RepositoryStats{
		NameWithOwner: nameWithOwner,
		Commits:       row.Commits,
		Additions:     row.Additions,
		Deletions:     row.Deletions,
	}, nil
}

// commitCollection scopes the commits table to one repository.
type commitCollection struct {
	q          database.Querier
	repository string
}

func (c *commitCollection) CommitExists(ctx context.Context, id string) (bool, error) {
	return c.q.CommitExists(ctx, database.CommitExistsParams{Repository: c.repository, ID: id})
}

func (c *commitCollection) InsertCommit(ctx context.Context, commit model.Commit) error {
	return c.q.CreateCommit(ctx, database.CreateCommitParams{
		Repository:      c.repository,
		ID:              commit.ID,
		Additions:       int64(commit.Additions),
		Deletions:       int64(commit.Deletions),
		MessageHeadline: commit.MessageHeadline,
		CommittedDate:   toTimestamptz(commit.CommittedDate),
	})
}

func toRepository(r database.Repository) model.Repository {
	return model.Repository{NameWithOwner: r.NameWithOwner, CreatedAt: r.CreatedAt.Time.UTC()}
}

func toTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
