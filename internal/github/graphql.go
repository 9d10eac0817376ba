// internal/github/graphql.go
package github

import (
	"encoding/json"
	"strings"
	"time"

	custom_errors "github-activity-mirror/internal/errors"
	"github-activity-mirror/internal/model"
)

const viewerQuery = `query {
  viewer {
    id
    login
  }
}`

const contributedReposQuery = `query($first: Int!, $after: String) {
  viewer {
    repositoriesContributedTo(
      first: $first
      after: $after
      contributionTypes: [COMMIT, PULL_REQUEST]
      includeUserRepositories: false
    ) {
      nodes {
        nameWithOwner
        createdAt
      }
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}`

const ownedReposQuery = `query($first: Int!, $after: String) {
  viewer {
    repositories(first: $first, after: $after, isFork: false, privacy: PUBLIC) {
      nodes {
        nameWithOwner
        createdAt
      }
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}`

const commitHistoryQuery = `query($owner: String!, $name: String!, $author: ID!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    defaultBranchRef {
      target {
        ... on Commit {
          history(first: $first, after: $after, author: {id: $author}) {
            nodes {
              oid
              committedDate
              additions
              deletions
              messageHeadline
            }
            pageInfo {
              endCursor
              hasNextPage
            }
          }
        }
      }
    }
  }
}`

const (
	errorTypeNotFound    = "NOT_FOUND"
	errorTypeRateLimited = "RATE_LIMITED"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage    `json:"data"`
	Errors []GraphQLErrorItem `json:"errors"`
}

// GraphQLErrorItem is one entry of a GraphQL response's errors array.
type GraphQLErrorItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLError is returned when the GraphQL endpoint answers with a non-empty errors array.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Type != "" {
			msgs = append(msgs, item.Type+": "+item.Message)
			continue
		}
		msgs = append(msgs, item.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Is reports NOT_FOUND errors as custom_errors.ErrNotFound.
func (e *GraphQLError) Is(target error) bool {
	return target == custom_errors.ErrNotFound && e.hasType(errorTypeNotFound)
}

func (e *GraphQLError) hasType(t string) bool {
	for _, item := range e.Errors {
		if item.Type == t {
			return true
		}
	}
	return false
}

type pageInfo struct {
	EndCursor   *string `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

func (p pageInfo) toModel() model.PageInfo {
	info := model.PageInfo{HasNextPage: p.HasNextPage}
	if p.EndCursor != nil {
		info.EndCursor = *p.EndCursor
	}
	return info
}

type repositoryNode struct {
	NameWithOwner string    `json:"nameWithOwner"`
	CreatedAt     time.Time `json:"createdAt"`
}

type repositoryConnection struct {
	Nodes    []repositoryNode `json:"nodes"`
	PageInfo pageInfo         `json:"pageInfo"`
}

func (c repositoryConnection) toPage() model.Page[model.Repository] {
	page := model.Page[model.Repository]{
		Items:    make([]model.Repository, 0, len(c.Nodes)),
		PageInfo: c.PageInfo.toModel(),
	}
	for _, n := range c.Nodes {
		page.Items = append(page.Items, model.Repository{NameWithOwner: n.NameWithOwner, CreatedAt: n.CreatedAt})
	}
	return page
}

type viewerData struct {
	Viewer struct {
		ID    string `json:"id"`
		Login string `json:"login"`
	} `json:"viewer"`
}

type contributedReposData struct {
	Viewer struct {
		RepositoriesContributedTo repositoryConnection `json:"repositoriesContributedTo"`
	} `json:"viewer"`
}

type ownedReposData struct {
	Viewer struct {
		Repositories repositoryConnection `json:"repositories"`
	} `json:"viewer"`
}

type commitNode struct {
	OID             string    `json:"oid"`
	CommittedDate   time.Time `json:"committedDate"`
	Additions       int       `json:"additions"`
	Deletions       int       `json:"deletions"`
	MessageHeadline string    `json:"messageHeadline"`
}

type commitHistory struct {
	Nodes    []commitNode `json:"nodes"`
	PageInfo pageInfo     `json:"pageInfo"`
}

type commitHistoryData struct {
	Repository *struct {
		DefaultBranchRef *struct {
			Target struct {
				History *commitHistory `json:"history"`
			} `json:"target"`
		} `json:"defaultBranchRef"`
	} `json:"repository"`
}

// toInternalCommit translates a history node to our internal model.Commit.
func toInternalCommit(n commitNode) model.Commit {
	return model.Commit{
		ID:              n.OID,
		Additions:       n.Additions,
		Deletions:       n.Deletions,
		MessageHeadline: n.MessageHeadline,
		CommittedDate:   n.CommittedDate.UTC().Truncate(time.Millisecond),
	}
}
