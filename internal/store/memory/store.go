// internal/store/memory/store.go
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github-activity-mirror/internal/model"
	"github-activity-mirror/internal/syncer"
)

// ErrDuplicate is returned when a single insert hits an existing key.
var ErrDuplicate = errors.New("memory: duplicate key")

// Store keeps every collection in process memory. It backs dry runs and tests.
type Store struct {
	mu      sync.RWMutex
	cursors map[string]string
	repos   []model.Repository
	commits map[string]*commitCollection
}

var _ syncer.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		cursors: make(map[string]string),
		commits: make(map[string]*commitCollection),
	}
}

func (s *Store) GetCursor(_ context.Context, stream string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cursors[stream]
	return v, ok, nil
}

func (s *Store) SetCursor(_ context.Context, stream, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[stream] = value
	return nil
}

func (s *Store) EnsureCursor(_ context.Context, stream, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cursors[stream]; ok {
		return v, nil
	}
	s.cursors[stream] = def
	return def, nil
}

// ListCursors returns every cursor sorted by stream name.
func (s *Store) ListCursors(_ context.Context) ([]model.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Cursor, 0, len(s.cursors))
	for name, v := range s.cursors {
		out = append(out, model.Cursor{Name: name, EndCursor: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) RepositoryExists(_ context.Context, nameWithOwner string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(nameWithOwner) >= 0, nil
}

func (s *Store) InsertRepository(_ context.Context, repo model.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(repo.NameWithOwner) >= 0 {
		return ErrDuplicate
	}
	s.repos = append(s.repos, repo)
	return nil
}

func (s *Store) InsertRepositories(_ context.Context, repos []model.Repository) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, repo := range repos {
		if s.indexOf(repo.NameWithOwner) >= 0 {
			continue
		}
		s.repos = append(s.repos, repo)
		n++
	}
	return n, nil
}

func (s *Store) ListRepositories(_ context.Context) ([]model.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Repository(nil), s.repos...), nil
}

func (s *Store) GetRepository(_ context.Context, nameWithOwner string) (model.Repository, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(nameWithOwner); i >= 0 {
		return s.repos[i], true, nil
	}
	return model.Repository{}, false, nil
}

func (s *Store) DeleteRepository(_ context.Context, nameWithOwner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(nameWithOwner); i >= 0 {
		s.repos = append(s.repos[:i], s.repos[i+1:]...)
	}
	return nil
}

func (s *Store) indexOf(nameWithOwner string) int {
	for i, r := range s.repos {
		if r.NameWithOwner == nameWithOwner {
			return i
		}
	}
	return -1
}

func (s *Store) CommitCollection(_ context.Context, nameWithOwner string) (syncer.CommitCollection, error) {
	return s.collection(nameWithOwner), nil
}

// ListCommits returns a repository's commits, newest first.
func (s *Store) ListCommits(_ context.Context, nameWithOwner string) ([]model.Commit, error) {
	c, ok := s.lookup(nameWithOwner)
	if !ok {
		return nil, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := append([]model.Commit(nil), c.order...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CommittedDate.After(out[j].CommittedDate) })
	return out, nil
}

// RepositoryStats sums a repository's commit collection.
func (s *Store) RepositoryStats(_ context.Context, nameWithOwner string) (model.RepositoryStats, error) {
	stats := model.RepositoryStats{NameWithOwner: nameWithOwner}
	c, ok := s.lookup(nameWithOwner)
	if !ok {
		return stats, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats.Commits = int64(len(c.order))
	for _, commit := range c.order {
		stats.Additions += int64(commit.Additions)
		stats.Deletions += int64(commit.Deletions)
	}
	return stats, nil
}

// Inserted returns a repository's commits in insertion order.
func (s *Store) Inserted(nameWithOwner string) []model.Commit {
	c, ok := s.lookup(nameWithOwner)
	if !ok {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Commit(nil), c.order...)
}

// lookup returns an existing collection without creating one.
func (s *Store) lookup(nameWithOwner string) (*commitCollection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[nameWithOwner]
	return c, ok
}

func (s *Store) collection(nameWithOwner string) *commitCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commits[nameWithOwner]
	if !ok {
		c = &commitCollection{byID: make(map[string]struct{})}
		s.commits[nameWithOwner] = c
	}
	return c
}

type commitCollection struct {
	mu    sync.RWMutex
	byID  map[string]struct{}
	order []model.Commit
}

func (c *commitCollection) CommitExists(_ context.Context, id string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byID[id]
	return ok, nil
}

func (c *commitCollection) InsertCommit(_ context.Context, commit model.Commit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[commit.ID]; ok {
		return ErrDuplicate
	}
	c.byID[commit.ID] = struct{}{}
	c.order = append(c.order, commit)
	return nil
}
