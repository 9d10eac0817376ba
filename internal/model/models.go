// internal/model/models.go
package model

import "time"

// Repository is a repository the user owns or has contributed to.
// NameWithOwner ("owner/name") is its unique key.
type Repository struct {
	NameWithOwner string    `json:"nameWithOwner"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Commit is a commit authored by the user on a repository's default branch.
// ID is the commit hash and is unique within one repository's collection.
type Commit struct {
	ID              string    `json:"id"`
	Additions       int       `json:"additions"`
	Deletions       int       `json:"deletions"`
	MessageHeadline string    `json:"messageHeadline"`
	CommittedDate   time.Time `json:"committedDate"`
}

// Cursor is the persisted position of one sync stream.
type Cursor struct {
	Name      string `json:"name"`
	EndCursor string `json:"endCursor"`
}

// PageInfo mirrors the GraphQL connection pageInfo object.
type PageInfo struct {
	EndCursor   string
	HasNextPage bool
}

// Page is one page of a paginated remote query.
type Page[T any] struct {
	Items    []T
	PageInfo PageInfo
}

// RepositoryStats aggregates a repository's commit collection.
type RepositoryStats struct {
	NameWithOwner string `json:"nameWithOwner"`
	Commits       int64  `json:"commits"`
	Additions     int64  `json:"additions"`
	Deletions     int64  `json:"deletions"`
}
