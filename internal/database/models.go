// internal/database/models.go
package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Commit struct {
	Repository      string
	ID              string
	Additions       int64
	Deletions       int64
	MessageHeadline string
	CommittedDate   pgtype.Timestamptz
	InsertedAt      pgtype.Timestamptz
}

type Repository struct {
	Seq           int64
	NameWithOwner string
	CreatedAt     pgtype.Timestamptz
	DiscoveredAt  pgtype.Timestamptz
}

type SyncCursor struct {
	Name      string
	EndCursor string
	UpdatedAt pgtype.Timestamptz
}
