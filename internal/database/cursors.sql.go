// internal/database/cursors.sql.go
package database

import (
	"context"
)

const ensureCursor = `-- name: EnsureCursor :one
INSERT INTO sync_cursors (name, end_cursor)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING end_cursor
`

type EnsureCursorParams struct {
	Name      string
	EndCursor string
}

func (q *Queries) EnsureCursor(ctx context.Context, arg EnsureCursorParams) (string, error) {
	row := q.db.QueryRow(ctx, ensureCursor, arg.Name, arg.EndCursor)
	var endCursor string
	err := row.Scan(&endCursor)
	return endCursor, err
}

const getCursor = `-- name: GetCursor :one
SELECT name, end_cursor, updated_at FROM sync_cursors
WHERE name = $1
`

func (q *Queries) GetCursor(ctx context.Context, name string) (SyncCursor, error) {
	row := q.db.QueryRow(ctx, getCursor, name)
	var i SyncCursor
	err := row.Scan(&i.Name, &i.EndCursor, &i.UpdatedAt)
	return i, err
}

const listCursors = `-- name: ListCursors :many
SELECT name, end_cursor, updated_at FROM sync_cursors
ORDER BY name
`

func (q *Queries) ListCursors(ctx context.Context) ([]SyncCursor, error) {
	rows, err := q.db.Query(ctx, listCursors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SyncCursor
	for rows.Next() {
		var i SyncCursor
		if err := rows.Scan(&i.Name, &i.EndCursor, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCursor = `-- name: UpsertCursor :exec
INSERT INTO sync_cursors (name, end_cursor)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET end_cursor = EXCLUDED.end_cursor, updated_at = now()
`

type UpsertCursorParams struct {
	Name      string
	EndCursor string
}

func (q *Queries) UpsertCursor(ctx context.Context, arg UpsertCursorParams) error {
	_, err := q.db.Exec(ctx, upsertCursor, arg.Name, arg.EndCursor)
	return err
}
