// internal/database/commits.sql.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const commitExists = `-- name: CommitExists :one
SELECT EXISTS (
    SELECT 1 FROM commits WHERE repository = $1 AND id = $2
)
`

type CommitExistsParams struct {
	Repository string
	ID         string
}

func (q *Queries) CommitExists(ctx context.Context, arg CommitExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, commitExists, arg.Repository, arg.ID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createCommit = `-- name: CreateCommit :exec
INSERT INTO commits (repository, id, additions, deletions, message_headline, committed_date)
VALUES ($1, $2, $3, $4, $5, $6)
`

type CreateCommitParams struct {
	Repository      string
	ID              string
	Additions       int64
	Deletions       int64
	MessageHeadline string
	CommittedDate   pgtype.Timestamptz
}

func (q *Queries) CreateCommit(ctx context.Context, arg CreateCommitParams) error {
	_, err := q.db.Exec(ctx, createCommit,
		arg.Repository,
		arg.ID,
		arg.Additions,
		arg.Deletions,
		arg.MessageHeadline,
		arg.CommittedDate,
	)
	return err
}

const getCommitsByRepository = `-- name: GetCommitsByRepository :many
SELECT repository, id, additions, deletions, message_headline, committed_date, inserted_at FROM commits
WHERE repository = $1
ORDER BY committed_date DESC
`

func (q *Queries) GetCommitsByRepository(ctx context.Context, repository string) ([]Commit, error) {
	rows, err := q.db.Query(ctx, getCommitsByRepository, repository)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Commit
	for rows.Next() {
		var i Commit
		if err := rows.Scan(
			&i.Repository,
			&i.ID,
			&i.Additions,
			&i.Deletions,
			&i.MessageHeadline,
			&i.CommittedDate,
			&i.InsertedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRepositoryStats = `-- name: GetRepositoryStats :one
SELECT
    count(*)::bigint AS commits,
    COALESCE(sum(additions), 0)::bigint AS additions,
    COALESCE(sum(deletions), 0)::bigint AS deletions
FROM commits
WHERE repository = $1
`

type GetRepositoryStatsRow struct {
	Commits   int64
	Additions int64
	Deletions int64
}

func (q *Queries) GetRepositoryStats(ctx context.Context, repository string) (GetRepositoryStatsRow, error) {
	row := q.db.QueryRow(ctx, getRepositoryStats, repository)
	var i GetRepositoryStatsRow
	err := row.Scan(&i.Commits, &i.Additions, &i.Deletions)
	return i, err
}
