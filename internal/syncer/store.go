// internal/syncer/store.go
package syncer

import (
	"context"

	"github-activity-mirror/internal/model"
)

// CursorStore persists one cursor value per stream name.
type CursorStore interface {
	// GetCursor returns the stored value and whether the stream has a record.
	GetCursor(ctx context.Context, stream string) (string, bool, error)
	SetCursor(ctx context.Context, stream, value string) error
	// EnsureCursor creates the record with def when absent and returns the stored value.
	EnsureCursor(ctx context.Context, stream, def string) (string, error)
}

// RepositoryStore is the collection of known repositories keyed by nameWithOwner.
type RepositoryStore interface {
	RepositoryExists(ctx context.Context, nameWithOwner string) (bool, error)
	InsertRepository(ctx context.Context, repo model.Repository) error
	// InsertRepositories inserts a batch, skipping keys that are already present.
	InsertRepositories(ctx context.Context, repos []model.Repository) (int64, error)
	ListRepositories(ctx context.Context) ([]model.Repository, error)
	DeleteRepository(ctx context.Context, nameWithOwner string) error
}

// CommitCollection is one repository's append-only commit collection keyed by commit id.
type CommitCollection interface {
	CommitExists(ctx context.Context, id string) (bool, error)
	InsertCommit(ctx context.Context, commit model.Commit) error
}

// CommitCollections opens the commit collection of a repository.
type CommitCollections interface {
	CommitCollection(ctx context.Context, nameWithOwner string) (CommitCollection, error)
}

// Store is everything the sync jobs persist to.
type Store interface {
	CursorStore
	RepositoryStore
	CommitCollections
}

// collectionRegistry caches commit collection handles for the duration of one run.
type collectionRegistry struct {
	opener  CommitCollections
	handles map[string]CommitCollection
}

func newCollectionRegistry(opener CommitCollections) *collectionRegistry {
	return &collectionRegistry{opener: opener, handles: make(map[string]CommitCollection)}
}

func (r *collectionRegistry) get(ctx context.Context, nameWithOwner string) (CommitCollection, error) {
	if h, ok := r.handles[nameWithOwner]; ok {
		return h, nil
	}
	h, err := r.opener.CommitCollection(ctx, nameWithOwner)
	if err != nil {
		return nil, err
	}
	r.handles[nameWithOwner] = h
	return h, nil
}
