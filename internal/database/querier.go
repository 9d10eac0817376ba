// internal/database/querier.go
package database

import (
	"context"
)

type Querier interface {
	CommitExists(ctx context.Context, arg CommitExistsParams) (bool, error)
	CreateCommit(ctx context.Context, arg CreateCommitParams) error
	CreateRepositories(ctx context.Context, arg CreateRepositoriesParams) (int64, error)
	CreateRepository(ctx context.Context, arg CreateRepositoryParams) error
	DeleteRepository(ctx context.Context, nameWithOwner string) (int64, error)
	EnsureCursor(ctx context.Context, arg EnsureCursorParams) (string, error)
	GetCommitsByRepository(ctx context.Context, repository string) ([]Commit, error)
	GetCursor(ctx context.Context, name string) (SyncCursor, error)
	GetRepository(ctx context.Context, nameWithOwner string) (Repository, error)
	GetRepositoryStats(ctx context.Context, repository string) (GetRepositoryStatsRow, error)
	ListCursors(ctx context.Context) ([]SyncCursor, error)
	ListRepositories(ctx context.Context) ([]Repository, error)
	RepositoryExists(ctx context.Context, nameWithOwner string) (bool, error)
	UpsertCursor(ctx context.Context, arg UpsertCursorParams) error
}

var _ Querier = (*Queries)(nil)
