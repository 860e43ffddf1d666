// Package listing implements the state behind a paginated admin list screen:
// query state with a reducer, debounced search, fetching with a stale
// response guard, local filtering/sorting/paging and export of the result.
package listing

import (
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	// Asc sorts ascending.
	Asc Direction = "asc"
	// Desc sorts descending.
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}

	return Desc
}

// Sort selects the sort key and direction. An empty Key means unsorted.
type Sort struct {
	Key       string
	Direction Direction
}

// Query is what the user currently wants to see.
type Query struct {
	Search   string
	Filters  map[string]string
	Sort     Sort
	Page     int
	PageSize int
}

// NewQuery returns the first page of an unfiltered query.
func NewQuery(pageSize int, sort Sort) Query {
	if sort.Key != "" && sort.Direction == "" {
		sort.Direction = Asc
	}

	return Query{
		Filters:  map[string]string{},
		Sort:     sort,
		Page:     1,
		PageSize: pageSize,
	}
}

// Filter returns the active value for key, "" when unset.
func (q Query) Filter(key string) string {
	return q.Filters[key]
}

// Equal reports whether two queries select the same rows.
func (q Query) Equal(o Query) bool {
	return q.Search == o.Search &&
		q.Sort == o.Sort &&
		q.Page == o.Page &&
		q.PageSize == o.PageSize &&
		maps.Equal(q.Filters, o.Filters)
}

func (q Query) clone() Query {
	q.Filters = maps.Clone(q.Filters)
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}

	return q
}

// Action is a Query State transition applied by Reduce.
type Action interface {
	reduce(q Query, totalPages int) Query
}

// SetSearch replaces the search text.
type SetSearch struct{ Text string }

// SetFilter sets or, with an empty value, clears a filter.
type SetFilter struct{ Key, Value string }

// SetSort sorts by Key, flipping the direction when Key is already active.
type SetSort struct{ Key string }

// SetPage moves to Page, clamped to the known page range.
type SetPage struct{ Page int }

// SetPageSize changes the page size. Non-positive sizes are ignored.
type SetPageSize struct{ Size int }

// ClearAll drops search, filters and sort, restoring Default.
type ClearAll struct{ Default Sort }

// Reduce applies a to q. totalPages is the page count of the last load
// (zero when unknown). Every change to search, filters, sort or page size
// resets the page to 1; an action that changes nothing returns q as is.
func Reduce(q Query, totalPages int, a Action) Query {
	if a == nil {
		return q
	}

	return a.reduce(q, totalPages)
}

func (a SetSearch) reduce(q Query, _ int) Query {
	text := strings.TrimSpace(a.Text)
	if text == q.Search {
		return q
	}

	q = q.clone()
	q.Search = text
	q.Page = 1

	return q
}

func (a SetFilter) reduce(q Query, _ int) Query {
	value := strings.TrimSpace(a.Value)
	if a.Key == "" || q.Filters[a.Key] == value {
		return q
	}

	q = q.clone()
	if value == "" {
		delete(q.Filters, a.Key)
	} else {
		q.Filters[a.Key] = value
	}

	q.Page = 1

	return q
}

func (a SetSort) reduce(q Query, _ int) Query {
	if a.Key == "" {
		return q
	}

	q = q.clone()
	if q.Sort.Key == a.Key {
		q.Sort.Direction = q.Sort.Direction.Flip()
	} else {
		q.Sort = Sort{Key: a.Key, Direction: Asc}
	}

	q.Page = 1

	return q
}

func (a SetPage) reduce(q Query, totalPages int) Query {
	page := max(a.Page, 1)
	if totalPages > 0 {
		page = min(page, totalPages)
	}

	if page == q.Page {
		return q
	}

	q = q.clone()
	q.Page = page

	return q
}

func (a SetPageSize) reduce(q Query, _ int) Query {
	if a.Size <= 0 || a.Size == q.PageSize {
		return q
	}

	q = q.clone()
	q.PageSize = a.Size
	q.Page = 1

	return q
}

func (a ClearAll) reduce(q Query, _ int) Query {
	next := NewQuery(q.PageSize, a.Default)
	if next.Equal(q) {
		return q
	}

	return next
}

// Request is the part of a Query sent to the backend. Criteria the backend
// cannot serve are left out and applied locally instead.
type Request struct {
	Page     int
	PageSize int
	Search   string
	Sort     Sort
	Filters  map[string]string
}

// BuildRequest projects q onto what the backend supports. Empty filter
// values are never sent.
func BuildRequest(q Query, remote Capabilities) Request {
	req := Request{Filters: map[string]string{}}

	if remote.Paging {
		req.Page = max(q.Page, 1)
		req.PageSize = q.PageSize
	}

	if remote.Search {
		req.Search = q.Search
	}

	if q.Sort.Key != "" && remote.sorts(q.Sort.Key) {
		req.Sort = q.Sort
	}

	for key, value := range q.Filters {
		if value != "" && remote.filters(key) {
			req.Filters[key] = value
		}
	}

	return req
}

// Key is a canonical identity of the request, equal for equal requests.
func (r Request) Key() string {
	values := url.Values{}

	if r.Page > 0 {
		values.Set("~page", strconv.Itoa(r.Page))
		values.Set("~size", strconv.Itoa(r.PageSize))
	}

	if r.Search != "" {
		values.Set("~search", r.Search)
	}

	if r.Sort.Key != "" {
		values.Set("~sort", r.Sort.Key+":"+string(r.Sort.Direction))
	}

	for key, value := range r.Filters {
		values.Set(key, value)
	}

	return values.Encode()
}
