// internal/database/repositories.sql.go
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const createRepositories = `-- name: CreateRepositories :execrows
INSERT INTO repositories (name_with_owner, created_at)
SELECT * FROM unnest($1::text[], $2::timestamptz[])
ON CONFLICT (name_with_owner) DO NOTHING
`

type CreateRepositoriesParams struct {
	NamesWithOwner []string
	CreatedAts     []time.Time
}

func (q *Queries) CreateRepositories(ctx context.Context, arg CreateRepositoriesParams) (int64, error) {
	result, err := q.db.Exec(ctx, createRepositories, arg.NamesWithOwner, arg.CreatedAts)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createRepository = `-- name: CreateRepository :exec
INSERT INTO repositories (name_with_owner, created_at)
VALUES ($1, $2)
`

type CreateRepositoryParams struct {
	NameWithOwner string
	CreatedAt     pgtype.Timestamptz
}

func (q *Queries) CreateRepository(ctx context.Context, arg CreateRepositoryParams) error {
	_, err := q.db.Exec(ctx, createRepository, arg.NameWithOwner, arg.CreatedAt)
	return err
}

const deleteRepository = `-- name: DeleteRepository :execrows
DELETE FROM repositories
WHERE name_with_owner = $1
`

func (q *Queries) DeleteRepository(ctx context.Context, nameWithOwner string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteRepository, nameWithOwner)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getRepository = `-- name: GetRepository :one
SELECT seq, name_with_owner, created_at, discovered_at FROM repositories
WHERE name_with_owner = $1
`

func (q *Queries) GetRepository(ctx context.Context, nameWithOwner string) (Repository, error) {
	row := q.db.QueryRow(ctx, getRepository, nameWithOwner)
	var i Repository
	err := row.Scan(
		&i.Seq,
		&i.NameWithOwner,
		&i.CreatedAt,
		&i.DiscoveredAt,
	)
	return i, err
}

const listRepositories = `-- name: ListRepositories :many
SELECT seq, name_with_owner, created_at, discovered_at FROM repositories
ORDER BY seq
`

func (q *Queries) ListRepositories(ctx context.Context) ([]Repository, error) {
	rows, err := q.db.Query(ctx, listRepositories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Repository
	for rows.Next() {
		var i Repository
		if err := rows.Scan(
			&i.Seq,
			&i.NameWithOwner,
			&i.CreatedAt,
			&i.DiscoveredAt,
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

const repositoryExists = `-- name: RepositoryExists :one
SELECT EXISTS (
    SELECT 1 FROM repositories WHERE name_with_owner = $1
)
`

func (q *Queries) RepositoryExists(ctx context.Context, nameWithOwner string) (bool, error) {
	row := q.db.QueryRow(ctx, repositoryExists, nameWithOwner)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
