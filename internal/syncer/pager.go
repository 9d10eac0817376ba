// internal/syncer/pager.go
package syncer

import (
	"context"

	"github-activity-mirror/internal/model"
)

// FetchFunc fetches the page that follows after. An empty after starts from the beginning.
type FetchFunc[T any] func(ctx context.Context, after string) (model.Page[T], error)

// PageHandler processes the items of one page. Returning stop ends pagination
// immediately; the page is then not checkpointed.
type PageHandler[T any] func(ctx context.Context, items []T) (stop bool, err error)

// CheckpointFunc persists progress once a page has been handled.
type CheckpointFunc func(ctx context.Context, info model.PageInfo) error

// PageStats describes a finished pagination pass.
type PageStats struct {
	Pages   int
	Stopped bool
}

// Paginate walks a remote connection starting at start, handing each page to handle and then to
// checkpoint before the next page is requested. Cursors are replayed verbatim.
func Paginate[T any](ctx context.Context, start string, fetch FetchFunc[T], handle PageHandler[T], checkpoint CheckpointFunc) (PageStats, error) {
	var stats PageStats
	cursor := start
	hasNextPage := true

	for hasNextPage {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return stats, err
		}
		stats.Pages++

		stop, err := handle(ctx, page.Items)
		if err != nil {
			return stats, err
		}
		if stop {
			stats.Stopped = true
			return stats, nil
		}

		info := page.PageInfo
		// A next page without a cursor cannot be requested.
		if info.EndCursor == "" {
			info.HasNextPage = false
		}
		if checkpoint != nil {
			if err := checkpoint(ctx, info); err != nil {
				return stats, err
			}
		}

		if info.EndCursor != "" {
			cursor = info.EndCursor
		}
		hasNextPage = info.HasNextPage
	}

	return stats, nil
}
