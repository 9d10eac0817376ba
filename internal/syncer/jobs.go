// internal/syncer/jobs.go
package syncer

import (
	"context"
	"errors"
	"fmt"

	custom_errors "github-activity-mirror/internal/errors"
	"github-activity-mirror/internal/model"
)

// syncContributions records every repository the user contributed to. Pages are bulk inserted
// without a lookup; the store skips keys it already has.
func (s *Syncer) syncContributions(ctx context.Context) (JobResult, error) {
	return s.syncRepositoryListing(ctx, JobContributions, contributionsStream, s.remote.ContributedRepositories,
		func(ctx context.Context, repos []model.Repository) (int64, error) {
			if len(repos) == 0 {
				return 0, nil
			}
			return s.store.InsertRepositories(ctx, repos)
		})
}

// syncOwnedRepos records the user's own repositories, inserting only those not already known.
// The owned listing overlaps with the contributions one.
func (s *Syncer) syncOwnedRepos(ctx context.Context) (JobResult, error) {
	return s.syncRepositoryListing(ctx, JobOwnedRepos, ownedReposStream, s.remote.OwnedRepositories,
		func(ctx context.Context, repos []model.Repository) (int64, error) {
			var inserted int64
			for _, repo := range repos {
				exists, err := s.store.RepositoryExists(ctx, repo.NameWithOwner)
				if err != nil {
					return inserted, err
				}
				if exists {
					continue
				}
				if err := s.store.InsertRepository(ctx, repo); err != nil {
					return inserted, err
				}
				inserted++
			}
			return inserted, nil
		})
}

// syncRepositoryListing resumes a repository listing stream from its cursor. The cursor only ever moves forward
// and the stream has no terminal state.
func (s *Syncer) syncRepositoryListing(
	ctx context.Context,
	job Job,
	stream string,
	fetch FetchFunc[model.Repository],
	insert func(context.Context, []model.Repository) (int64, error),
) (JobResult, error) {
	result := JobResult{Job: job}
	logger := s.logger.With("job", job, "stream", stream)

	stored, err := s.store.EnsureCursor(ctx, stream, NotStarted().Encode())
	if err != nil {
		return result, fmt.Errorf("failed to load cursor %q: %w", stream, err)
	}
	state := ParseCursor(stored)
	logger.Info("Syncing repositories", "phase", state.Phase, "after", state.After())

	stats, err := Paginate(ctx, state.After(), fetch,
		func(ctx context.Context, repos []model.Repository) (bool, error) {
			n, err := insert(ctx, repos)
			result.Inserted += n
			if err != nil {
				return false, fmt.Errorf("failed to store repositories: %w", err)
			}
			return false, nil
		},
		func(ctx context.Context, info model.PageInfo) error {
			if info.EndCursor == "" {
				return nil
			}
			logger.Debug("Advancing cursor", "cursor", info.EndCursor)
			return s.store.SetCursor(ctx, stream, InProgress(info.EndCursor).Encode())
		},
	)
	result.Pages = stats.Pages
	return result, err
}

// syncCommits walks every known repository and mirrors the user's commits on it.
// A failure on one repository never aborts the others.
func (s *Syncer) syncCommits(ctx context.Context) (JobResult, error) {
	result := JobResult{Job: JobCommits}

	authorID, err := s.remote.ViewerID(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to resolve authenticated user: %w", err)
	}

	repos, err := s.store.ListRepositories(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list repositories: %w", err)
	}
	s.logger.Info("Syncing commits", "job", JobCommits, "repositories", len(repos))

	collections := newCollectionRegistry(s.store)
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		logger := s.logger.With("job", JobCommits, "repo", repo.NameWithOwner)
		pages, inserted, err := s.syncRepoCommits(ctx, collections, authorID, repo.NameWithOwner)
		result.Pages += pages
		result.Inserted += inserted

		switch {
		case err == nil:
			logger.Debug("Repository synced", "pages", pages, "inserted", inserted)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return result, err
		case errors.Is(err, custom_errors.ErrNotFound):
			logger.Warn("Repository no longer exists upstream, removing it", "error", err)
			if err := s.store.DeleteRepository(ctx, repo.NameWithOwner); err != nil {
				logger.Error("Failed to remove repository", "error", err)
				result.Failed++
				continue
			}
			result.Deleted++
		default:
			logger.Error("Failed to sync repository commits", "error", err)
			result.Failed++
		}
	}

	return result, nil
}

// syncRepoCommits runs one repository's commit stream.
//
// Until a full pass has completed (backfill) the stream resumes from its saved cursor, checkpoints every page and
// becomes finished on the last page. Commits already stored there are replays of a page whose checkpoint was lost,
// so they are skipped. Once finished (top-up) every run restarts at the newest commit, never moves the cursor and
// stops the whole repository at the first commit already stored. Top-up commits are written oldest first after
// the walk so an interrupted run cannot leave a gap behind a stored commit. A top-up that buffers topUpLimit commits
// without reaching a stored one resets the stream and carries on as a checkpointed backfill.
func (s *Syncer) syncRepoCommits(ctx context.Context, collections *collectionRegistry, authorID, nameWithOwner string) (int, int64, error) {
	id, err := parseRepoIdentifier(nameWithOwner)
	if err != nil {
		return 0, 0, err
	}

	stored, err := s.store.EnsureCursor(ctx, nameWithOwner, NotStarted().Encode())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load cursor: %w", err)
	}
	state := ParseCursor(stored)
	topUp := state.Phase == CursorFinished

	commits, err := collections.get(ctx, nameWithOwner)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open commit collection: %w", err)
	}

	var inserted int64
	var pending []model.Commit

	fetch := func(ctx context.Context, after string) (model.Page[model.Commit], error) {
		return s.remote.RepositoryCommits(ctx, id.Owner, id.Name, authorID, after)
	}

	handle := func(ctx context.Context, items []model.Commit) (bool, error) {
		for _, c := range items {
			seen, err := commits.CommitExists(ctx, c.ID)
			if err != nil {
				return false, err
			}
			switch {
			case seen && topUp:
				return true, nil
			case seen:
				continue
			case topUp:
				pending = append(pending, c)
				if s.topUpLimit > 0 && len(pending) >= s.topUpLimit {
					if err := s.abandonTopUp(ctx, commits, nameWithOwner, pending); err != nil {
						return false, err
					}
					inserted += int64(len(pending))
					pending = nil
					topUp = false
				}
			default:
				if err := commits.InsertCommit(ctx, c); err != nil {
					return false, err
				}
				inserted++
			}
		}
		return false, nil
	}

	checkpoint := func(ctx context.Context, info model.PageInfo) error {
		if topUp {
			return nil
		}
		next := Finished()
		if info.HasNextPage {
			next = InProgress(info.EndCursor)
		}
		return s.store.SetCursor(ctx, nameWithOwner, next.Encode())
	}

	stats, err := Paginate(ctx, state.After(), fetch, handle, checkpoint)
	if err != nil {
		return stats.Pages, inserted, err
	}

	for i := len(pending) - 1; i >= 0; i-- {
		if err := commits.InsertCommit(ctx, pending[i]); err != nil {
			return stats.Pages, inserted, err
		}
		inserted++
	}

	return stats.Pages, inserted, nil
}

// abandonTopUp turns a top-up that is too far behind into a backfill. The cursor is reset before anything is
// written, so an interruption resumes from the newest commit and skips what is already stored.
func (s *Syncer) abandonTopUp(ctx context.Context, commits CommitCollection, nameWithOwner string, pending []model.Commit) error {
	s.logger.Warn("Top-up found no stored commit, falling back to backfill",
		"job", JobCommits, "repo", nameWithOwner, "buffered", len(pending))
	if err := s.store.SetCursor(ctx, nameWithOwner, NotStarted().Encode()); err != nil {
		return fmt.Errorf("failed to reset cursor: %w", err)
	}
	for _, c := range pending {
		if err := commits.InsertCommit(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
