package listing

import (
	"slices"
	"strings"
)

// View is what a screen renders: the current page of rows plus the full
// filtered set that export works from.
type View[T any] struct {
	Rows       []T
	Filtered   []T
	Pagination Pagination
}

// Transform derives the visible rows from a fetched page. Only the criteria
// the backend does not support (schema.Remote) are applied here. Transform
// never modifies page and returns the same result for the same inputs.
func Transform[T any](page Page[T], q Query, schema Schema[T]) View[T] {
	return transform(page, q, schema, schema.Remote)
}

// Fallback re-derives a view from cached rows after a failed fetch. Search,
// filters and sort are all applied locally; paging stays with the backend
// when it owns it.
func Fallback[T any](page Page[T], q Query, schema Schema[T]) View[T] {
	return transform(page, q, schema, Capabilities{Paging: schema.Remote.Paging})
}

func transform[T any](page Page[T], q Query, schema Schema[T], remote Capabilities) View[T] {
	rows := slices.Clone(page.Rows)

	if q.Search != "" && !remote.Search {
		rows = search(rows, q.Search, schema)
	}

	rows = filter(rows, q.Filters, schema, remote)

	if q.Sort.Key != "" && !remote.sorts(q.Sort.Key) {
		if field, ok := schema.Field(q.Sort.Key); ok {
			sortRows(rows, field, q.Sort.Direction)
		}
	}

	if remote.Paging {
		pagination := page.Pagination
		if pagination.PageSize == 0 {
			pagination = NewPagination(len(rows), q.Page, q.PageSize)
		}

		return View[T]{Rows: rows, Filtered: rows, Pagination: pagination}
	}

	pagination := NewPagination(len(rows), q.Page, q.PageSize)
	start, end := pagination.Bounds(len(rows))

	return View[T]{
		Rows:       rows[start:end:end],
		Filtered:   rows,
		Pagination: pagination,
	}
}

func search[T any](rows []T, text string, schema Schema[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return rows
	}

	fields := make([]Field[T], 0, len(schema.SearchFields))
	for _, name := range schema.SearchFields {
		if f, ok := schema.Field(name); ok {
			fields = append(fields, f)
		}
	}

	out := rows[:0:0]

	for _, row := range rows {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(Text(f.Value(row))), needle) {
				out = append(out, row)

				break
			}
		}
	}

	return out
}

func filter[T any](rows []T, filters map[string]string, schema Schema[T], remote Capabilities) []T {
	type active struct {
		field Field[T]
		want  string
	}

	var checks []active

	for key, value := range filters {
		if value == "" || remote.filters(key) {
			continue
		}

		if f, ok := schema.Field(key); ok {
			checks = append(checks, active{field: f, want: strings.ToLower(strings.TrimSpace(value))})
		}
	}

	if len(checks) == 0 {
		return rows
	}

	out := rows[:0:0]

	for _, row := range rows {
		keep := true

		for _, c := range checks {
			if !matches(c.field, row, c.want) {
				keep = false

				break
			}
		}

		if keep {
			out = append(out, row)
		}
	}

	return out
}

func matches[T any](f Field[T], row T, want string) bool {
	got := strings.ToLower(strings.TrimSpace(Text(f.Value(row))))

	if f.Match == MatchContains {
		return strings.Contains(got, want)
	}

	return got == want
}

// sortRows sorts in place, stably. Absent values go last in both directions;
// Desc negates the comparison so equal keys keep their order.
func sortRows[T any](rows []T, field Field[T], dir Direction) {
	type keyed struct {
		row   T
		value any
		ok    bool
	}

	items := make([]keyed, len(rows))
	for i, row := range rows {
		v, ok := sortValue(field.Kind, field.Value(row))
		items[i] = keyed{row: row, value: v, ok: ok}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case !a.ok && !b.ok:
			return 0
		case !a.ok:
			return 1
		case !b.ok:
			return -1
		}

		c := compareValues(a.value, b.value)
		if dir == Desc {
			return -c
		}

		return c
	})

	for i := range items {
		rows[i] = items[i].row
	}
}
