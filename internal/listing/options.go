package listing

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// OptionsSource loads the allowed values of a filter from the backend.
type OptionsSource interface {
	FilterOptions(ctx context.Context, key string) ([]string, error)
}

// DistinctValues returns the distinct non-empty values of field over rows,
// compared case-insensitively, in sorted order.
func DistinctValues[T any](rows []T, field Field[T]) []string {
	seen := map[string]struct{}{}
	out := []string{}

	for _, row := range rows {
		text := strings.TrimSpace(Text(field.Value(row)))
		if text == "" {
			continue
		}

		key := strings.ToLower(text)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, text)
	}

	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	return out
}

// LoadOptions resolves the option sets for keys concurrently. Each key uses
// src when it returns a non-empty set and falls back to the distinct values
// of the loaded rows otherwise. Backend errors are absorbed by the fallback.
func LoadOptions[T any](ctx context.Context, src OptionsSource, rows []T, schema Schema[T], keys ...string) (map[string][]string, error) {
	var (
		mu  sync.Mutex
		out = make(map[string][]string, len(keys))
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, key := range keys {
		g.Go(func() error {
			var values []string

			if src != nil {
				loaded, err := src.FilterOptions(gctx, key)
				if err == nil {
					values = loaded
				} else if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
			}

			if len(values) == 0 {
				if field, ok := schema.Field(key); ok {
					values = DistinctValues(rows, field)
				}
			}

			mu.Lock()
			out[key] = values
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
