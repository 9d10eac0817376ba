// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	custom_errors "github-activity-mirror/internal/errors"
	"github-activity-mirror/internal/model"
)

// Job names one of the sync streams the driver can run.
type Job string

const (
	JobContributions Job = "contributions"
	JobOwnedRepos    Job = "owned-repos"
	JobCommits       Job = "commits"
)

// defaultTopUpLimit bounds the commits held in memory by one top-up pass.
const defaultTopUpLimit = 1000

// jobOrder is the order jobs always run in: the commit job enumerates the repositories the other two collect.
var jobOrder = []Job{JobContributions, JobOwnedRepos, JobCommits}

// Remote is the paged GitHub API the jobs read from.
type Remote interface {
	ViewerID(ctx context.Context) (string, error)
	ContributedRepositories(ctx context.Context, after string) (model.Page[model.Repository], error)
	OwnedRepositories(ctx context.Context, after string) (model.Page[model.Repository], error)
	RepositoryCommits(ctx context.Context, owner, name, authorID, after string) (model.Page[model.Commit], error)
}

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

// JobResult summarises one job run.
type JobResult struct {
	Job      Job
	Pages    int
	Inserted int64
	Deleted  int
	Failed   int
}

// Syncer orchestrates the fetching and storing of data.
type Syncer struct {
	store        Store
	remote       Remote
	logger       *slog.Logger
	jobs         []Job
	syncInterval time.Duration
	// topUpLimit caps the commits a top-up buffers before falling back to backfill. Zero disables the cap.
	topUpLimit int
}

// NewSyncer creates a new Syncer instance. An empty jobs list selects every job.
func NewSyncer(store Store, remote Remote, logger *slog.Logger, jobs []string, interval time.Duration) (*Syncer, error) {
	selected, err := ParseJobs(jobs)
	if err != nil {
		return nil, err
	}

	return &Syncer{
		store:        store,
		remote:       remote,
		logger:       logger,
		jobs:         selected,
		syncInterval: interval,
		topUpLimit:   defaultTopUpLimit,
	}, nil
}

// ParseJobs validates job names and returns them in execution order without duplicates.
func ParseJobs(names []string) ([]Job, error) {
	if len(names) == 0 {
		return append([]Job(nil), jobOrder...), nil
	}

	wanted := make(map[Job]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		job := Job(n)
		if !job.valid() {
			return nil, &custom_errors.ErrUnknownJob{Name: n}
		}
		wanted[job] = true
	}

	var jobs []Job
	for _, job := range jobOrder {
		if wanted[job] {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		return append([]Job(nil), jobOrder...), nil
	}
	return jobs, nil
}

func (j Job) valid() bool {
	for _, known := range jobOrder {
		if j == known {
			return true
		}
	}
	return false
}

// Start runs the selected jobs once, and then on every tick when an interval is configured.
// In one-shot mode the run's error is returned; in scheduled mode failures are logged and retried on the next tick.
func (s *Syncer) Start(ctx context.Context) error {
	if s.syncInterval <= 0 {
		_, err := s.RunOnce(ctx)
		return err
	}

	s.logger.Info("Starting syncer", "interval", s.syncInterval.String(), "jobs", s.jobs)
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	s.runSyncCycle(ctx) // Initial sync

	for {
		select {
		case <-ticker.C:
			s.runSyncCycle(ctx)
		case <-ctx.Done():
			s.logger.Info("Syncer shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

func (s *Syncer) runSyncCycle(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Sync cycle failed", "error", err)
	}
}

// RunOnce runs every selected job in order. Failures of the repository listing jobs abort the run;
// the commit job isolates failures per repository.
func (s *Syncer) RunOnce(ctx context.Context) ([]JobResult, error) {
	s.logger.Info("Starting new sync cycle", "jobs", s.jobs)
	results := make([]JobResult, 0, len(s.jobs))

	for _, job := range s.jobs {
		start := time.Now()
		res, err := s.RunJob(ctx, job)
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("job %s: %w", job, err)
		}
		s.logger.Info("Job finished",
			"job", job,
			"pages", res.Pages,
			"inserted", res.Inserted,
			"deleted", res.Deleted,
			"failed", res.Failed,
			"duration", time.Since(start).String(),
		)
	}

	s.logger.Info("Sync cycle finished")
	return results, nil
}

// RunJob runs a single job regardless of the configured selection.
func (s *Syncer) RunJob(ctx context.Context, job Job) (JobResult, error) {
	switch job {
	case JobContributions:
		return s.syncContributions(ctx)
	case JobOwnedRepos:
		return s.syncOwnedRepos(ctx)
	case JobCommits:
		return s.syncCommits(ctx)
	default:
		return JobResult{Job: job}, &custom_errors.ErrUnknownJob{Name: string(job)}
	}
}

func parseRepoIdentifier(nameWithOwner string) (RepoIdentifier, error) {
	parts := strings.Split(nameWithOwner, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoIdentifier{}, &custom_errors.ErrInvalidRepoFormat{Repo: nameWithOwner}
	}
	return RepoIdentifier{Owner: parts[0], Name: parts[1]}, nil
}
