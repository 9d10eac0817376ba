// internal/store/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github-activity-mirror/internal/model"
	"github-activity-mirror/internal/syncer"
)

// Store persists the mirror in a single SQLite file.
type Store struct {
	db *sql.DB
}

var _ syncer.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and bootstraps its schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// go-sqlite3 connections do not share an in-process write lock.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
	create table if not exists repositories (
		seq integer primary key autoincrement,
		name_with_owner text not null unique,
		created_at integer not null
	);
	create table if not exists commits (
		repository text not null,
		id text not null,
		additions integer not null,
		deletions integer not null,
		message_headline text not null,
		committed_date integer not null,
		primary key (repository, id)
	);
	create index if not exists commits_repository_date on commits (repository, committed_date desc);
	create table if not exists sync_cursors (
		name text primary key,
		end_cursor text not null
	);`)
	if err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetCursor(ctx context.Context, stream string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `select end_cursor from sync_cursors where name = ?`, stream).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) SetCursor(ctx context.Context, stream, value string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into sync_cursors (name, end_cursor)
		values (?, ?)
		on conflict(name) do update set end_cursor = excluded.end_cursor`, stream, value)
	return err
}

func (s *Store) EnsureCursor(ctx context.Context, stream, def string) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		`insert into sync_cursors (name, end_cursor) values (?, ?) on conflict(name) do nothing`, stream, def); err != nil {
		return "", err
	}
	v, _, err := s.GetCursor(ctx, stream)
	return v, err
}

func (s *Store) ListCursors(ctx context.Context) ([]model.Cursor, error) {
	rows, err := s.db.QueryContext(ctx, `select name, end_cursor from sync_cursors order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Cursor
	for rows.Next() {
		var c model.Cursor
		if err := rows.Scan(&c.Name, &c.EndCursor); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) RepositoryExists(ctx context.Context, nameWithOwner string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from repositories where name_with_owner = ?)`, nameWithOwner).Scan(&exists)
	return exists, err
}

func (s *Store) InsertRepository(ctx context.Context, repo model.Repository) error {
	_, err := s.db.ExecContext(ctx,
		`insert into repositories (name_with_owner, created_at) values (?, ?)`,
		repo.NameWithOwner, repo.CreatedAt.UnixMilli())
	return err
}

// InsertRepositories inserts the batch in one transaction, skipping names already stored.
func (s *Store) InsertRepositories(ctx context.Context, repos []model.Repository) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`insert into repositories (name_with_owner, created_at) values (?, ?) on conflict(name_with_owner) do nothing`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range repos {
		res, err := stmt.ExecContext(ctx, r.NameWithOwner, r.CreatedAt.UnixMilli())
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	return inserted, tx.Commit()
}

func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	rows, err := s.db.QueryContext(ctx, `select name_with_owner, created_at from repositories order by seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Repository
	for rows.Next() {
		var (
			r       model.Repository
			created int64
		)
		if err := rows.Scan(&r.NameWithOwner, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = fromMillis(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRepository(ctx context.Context, nameWithOwner string) (model.Repository, bool, error) {
	var created int64
	err := s.db.QueryRowContext(ctx,
		`select created_at from repositories where name_with_owner = ?`, nameWithOwner).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Repository{}, false, nil
	}
	if err != nil {
		return model.Repository{}, false, err
	}
	return model.Repository{NameWithOwner: nameWithOwner, CreatedAt: fromMillis(created)}, true, nil
}

func (s *Store) DeleteRepository(ctx context.Context, nameWithOwner string) error {
	_, err := s.db.ExecContext(ctx, `delete from repositories where name_with_owner = ?`, nameWithOwner)
	return err
}

func (s *Store) CommitCollection(_ context.Context, nameWithOwner string) (syncer.CommitCollection, error) {
	return &commitCollection{db: s.db, repository: nameWithOwner}, nil
}

// ListCommits returns a repository's commits, newest first.
func (s *Store) ListCommits(ctx context.Context, nameWithOwner string) ([]model.Commit, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, additions, deletions, message_headline, committed_date
		from commits where repository = ?
		order by committed_date desc, rowid desc`, nameWithOwner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Commit
	for rows.Next() {
		var (
			c         model.Commit
			committed int64
		)
		if err := rows.Scan(&c.ID, &c.Additions, &c.Deletions, &c.MessageHeadline, &committed); err != nil {
			return nil, err
		}
		c.CommittedDate = fromMillis(committed)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) RepositoryStats(ctx context.Context, nameWithOwner string) (model.RepositoryStats, error) {
	stats := model.RepositoryStats{NameWithOwner: nameWithOwner}
	err := s.db.QueryRowContext(ctx, `
		select count(*), coalesce(sum(additions), 0), coalesce(sum(deletions), 0)
		from commits where repository = ?`, nameWithOwner).
		Scan(&stats.Commits, &stats.Additions, &stats.Deletions)
	return stats, err
}

type commitCollection struct {
	db         *sql.DB
	repository string
}

func (c *commitCollection) CommitExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`select exists(select 1 from commits where repository = ? and id = ?)`, c.repository, id).Scan(&exists)
	return exists, err
}

func (c *commitCollection) InsertCommit(ctx context.Context, commit model.Commit) error {
	_, err := c.db.ExecContext(ctx, `
		insert into commits (repository, id, additions, deletions, message_headline, committed_date)
		values (?, ?, ?, ?, ?, ?)`,
		c.repository, commit.ID, commit.Additions, commit.Deletions, commit.MessageHeadline, commit.CommittedDate.UnixMilli())
	return err
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
