package listing

import (
	"context"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// Page is one normalized backend response.
type Page[T any] struct {
	Rows       []T
	Pagination Pagination
}

// Source lists rows for a request. Implementations normalize whatever
// envelope the backend uses and honor ctx cancellation.
type Source[T any] interface {
	List(ctx context.Context, req Request) (Page[T], error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context, req Request) (Page[T], error)

// List calls f.
func (f SourceFunc[T]) List(ctx context.Context, req Request) (Page[T], error) {
	return f(ctx, req)
}

// StaticSource serves a fixed row set, as a backend without any query support.
func StaticSource[T any](rows []T) Source[T] {
	return SourceFunc[T](func(ctx context.Context, _ Request) (Page[T], error) {
		if err := ctx.Err(); err != nil {
			return Page[T]{}, err
		}

		return Page[T]{Rows: rows, Pagination: NewPagination(len(rows), 1, 0)}, nil
	})
}

// CollectAll walks every backend page of q and returns the rows with local
// criteria applied once over the whole set, for exports that must cover the
// whole result rather than the visible page. maxPages bounds the walk; zero
// means no bound.
func CollectAll[T any](ctx context.Context, src Source[T], q Query, schema Schema[T], maxPages int) ([]T, error) {
	if !schema.Remote.Paging {
		req := BuildRequest(q, schema.Remote)

		page, err := src.List(ctx, req)
		if err != nil {
			return nil, err
		}

		return Transform(page, q, schema).Filtered, nil
	}

	var all []T

	q.Page = 1

	for {
		page, err := src.List(ctx, BuildRequest(q, schema.Remote))
		if err != nil {
			return nil, ewrap.Wrap(err, "collecting rows").WithMetadata("page", q.Page)
		}

		all = append(all, page.Rows...)

		if len(page.Rows) == 0 || q.Page >= page.Pagination.TotalPages {
			break
		}

		if maxPages > 0 && q.Page >= maxPages {
			return collected(all, q, schema), ewrap.New("export truncated").
				WithMetadata("pages", maxPages).
				WithMetadata("total", page.Pagination.Total)
		}

		q.Page++
	}

	return collected(all, q, schema), nil
}

// collected applies the local criteria to rows gathered from several pages,
// so a local sort orders the whole set instead of each page.
func collected[T any](rows []T, q Query, schema Schema[T]) []T {
	local := schema.Remote
	local.Paging = false

	return transform(Page[T]{Rows: rows}, q, schema, local).Filtered
}
