// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-activity-mirror/internal/model"
)

const (
	// Total attempts per GraphQL request, including the first one.
	maxRetries = 3

	defaultGraphQLURL = "graphql"
	defaultPageSize   = 100
	defaultRetryDelay = time.Second
	maxBackoff        = 30 * time.Second
)

// Client is a wrapper around the go-github client that speaks to the GraphQL endpoint.
type Client struct {
	gh         *github.Client
	logger     *slog.Logger
	graphqlURL string
	pageSize   int
	retryDelay time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithGraphQLURL points the client at a different GraphQL endpoint, e.g. a GitHub Enterprise Server.
func WithGraphQLURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.graphqlURL = u
		}
	}
}

// WithPageSize sets the number of nodes requested per page. Values outside 1..100 are ignored.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= 100 {
			c.pageSize = n
		}
	}
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client.
func NewClient(token string, logger *slog.Logger, opts ...Option) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	c := &Client{
		gh:         github.NewClient(tc),
		logger:     logger,
		graphqlURL: defaultGraphQLURL,
		pageSize:   defaultPageSize,
		retryDelay: defaultRetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ViewerID returns the node id of the authenticated user.
func (c *Client) ViewerID(ctx context.Context) (string, error) {
	var data viewerData
	if err := c.query(ctx, viewerQuery, nil, &data); err != nil {
		return "", err
	}
	c.logger.Debug("Resolved authenticated user", "login", data.Viewer.Login, "id", data.Viewer.ID)
	return data.Viewer.ID, nil
}

// ContributedRepositories fetches one page of repositories the user contributed commits or pull requests to.
func (c *Client) ContributedRepositories(ctx context.Context, after string) (model.Page[model.Repository], error) {
	var data contributedReposData
	if err := c.query(ctx, contributedReposQuery, c.pageVars(after), &data); err != nil {
		return model.Page[model.Repository]{}, err
	}
	return data.Viewer.RepositoriesContributedTo.toPage(), nil
}

// OwnedRepositories fetches one page of the user's public, non-fork repositories.
func (c *Client) OwnedRepositories(ctx context.Context, after string) (model.Page[model.Repository], error) {
	var data ownedReposData
	if err := c.query(ctx, ownedReposQuery, c.pageVars(after), &data); err != nil {
		return model.Page[model.Repository]{}, err
	}
	return data.Viewer.Repositories.toPage(), nil
}

// RepositoryCommits fetches one page of the default branch history of owner/name authored by authorID,
// newest first. A repository without a default branch yields an empty final page.
func (c *Client) RepositoryCommits(ctx context.Context, owner, name, authorID, after string) (model.Page[model.Commit], error) {
	vars := c.pageVars(after)
	vars["owner"] = owner
	vars["name"] = name
	vars["author"] = authorID

	var data commitHistoryData
	if err := c.query(ctx, commitHistoryQuery, vars, &data); err != nil {
		return model.Page[model.Commit]{}, err
	}
	if data.Repository == nil {
		return model.Page[model.Commit]{}, &GraphQLError{Errors: []GraphQLErrorItem{{
			Type:    errorTypeNotFound,
			Message: fmt.Sprintf("Could not resolve to a Repository with the name '%s/%s'.", owner, name),
		}}}
	}
	ref := data.Repository.DefaultBranchRef
	if ref == nil || ref.Target.History == nil {
		return model.Page[model.Commit]{}, nil
	}

	history := ref.Target.History
	page := model.Page[model.Commit]{
		Items:    make([]model.Commit, 0, len(history.Nodes)),
		PageInfo: history.PageInfo.toModel(),
	}
	for _, n := range history.Nodes {
		page.Items = append(page.Items, toInternalCommit(n))
	}
	return page, nil
}

func (c *Client) pageVars(after string) map[string]any {
	vars := map[string]any{"first": c.pageSize}
	if after != "" {
		vars["after"] = after
	}
	return vars
}

// query posts a GraphQL document and decodes its data into out. Server errors and rate limits are retried.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	payload := graphqlRequest{Query: query, Variables: vars}

	return retry.Do(func() error {
		req, err := c.gh.NewRequest(http.MethodPost, c.graphqlURL, payload)
		if err != nil {
			return retry.Unrecoverable(err)
		}

		var resp graphqlResponse
		if _, err := c.gh.Do(ctx, req, &resp); err != nil {
			return err
		}
		if len(resp.Errors) > 0 {
			return &GraphQLError{Errors: resp.Errors}
		}
		if len(resp.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to decode graphql data: %w", err))
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(maxRetries),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.Delay(c.retryDelay),
		retry.DelayType(retryDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Retrying GitHub request", "attempt", n+1, "error", err)
		}),
	)
}

// isRetryable reports whether err is a server-side or rate-limit failure worth another attempt.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse
	var gqlErr *GraphQLError
	var urlErr *url.Error
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return true
	case errors.As(err, &respErr):
		return respErr.Response != nil && respErr.Response.StatusCode >= http.StatusInternalServerError
	case errors.As(err, &gqlErr):
		return gqlErr.hasType(errorTypeRateLimited)
	case errors.As(err, &urlErr):
		return true
	}
	return false
}

// retryDelay waits for the rate limit window to reset when GitHub reports one, and backs off exponentially otherwise.
func retryDelay(n uint, err error, config *retry.Config) time.Duration {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		if wait := time.Until(rateErr.Rate.Reset.Time); wait > 0 {
			return wait
		}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return *abuseErr.RetryAfter
	}
	return min(retry.BackOffDelay(n, err, config), maxBackoff)
}
