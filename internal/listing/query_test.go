package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	t.Parallel()

	base := NewQuery(10, Sort{Key: "created", Direction: Desc})
	base.Page = 3

	tests := []struct {
		name   string
		action Action
		total  int
		check  func(t *testing.T, q Query)
	}{
		{
			name:   "search trims and resets page",
			action: SetSearch{Text: "  theft "},
			check: func(t *testing.T, q Query) {
				assert.Equal(t, "theft", q.Search)
				assert.Equal(t, 1, q.Page)
			},
		},
		{
			name:   "filter sets value and resets page",
			action: SetFilter{Key: "status", Value: "Rejected"},
			check: func(t *testing.T, q Query) {
				assert.Equal(t, "Rejected", q.Filter("status"))
				assert.Equal(t, 1, q.Page)
			},
		},
		{
			name:   "sort on new key starts ascending",
			action: SetSort{Key: "title"},
			check: func(t *testing.T, q Query) {
				assert.Equal(t, Sort{Key: "title", Direction: Asc}, q.Sort)
				assert.Equal(t, 1, q.Page)
			},
		},
		{
			name:   "sort on active key flips",
			action: SetSort{Key: "created"},
			check: func(t *testing.T, q Query) {
				assert.Equal(t, Sort{Key: "created", Direction: Asc}, q.Sort)
			},
		},
		{
			name:   "page clamps to known total",
			action: SetPage{Page: 9},
			total:  4,
			check: func(t *testing.T, q Query) {
				assert.Equal(t, 4, q.Page)
			},
		},
		{
			name:   "page below one becomes one",
			action: SetPage{Page: -2},
			check: func(t *testing.T, q Query) {
				assert.Equal(t, 1, q.Page)
			},
		},
		{
			name:   "page size resets page",
			action: SetPageSize{Size: 25},
			check: func(t *testing.T, q Query) {
				assert.Equal(t, 25, q.PageSize)
				assert.Equal(t, 1, q.Page)
			},
		},
		{
			name:   "clear all restores default sort and keeps page size",
			action: ClearAll{Default: Sort{Key: "id"}},
			check: func(t *testing.T, q Query) {
				assert.Empty(t, q.Search)
				assert.Empty(t, q.Filters)
				assert.Equal(t, Sort{Key: "id", Direction: Asc}, q.Sort)
				assert.Equal(t, 10, q.PageSize)
				assert.Equal(t, 1, q.Page)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next := Reduce(base, tt.total, tt.action)
			tt.check(t, next)
			assert.Equal(t, 3, base.Page, "input query must not change")
			assert.Empty(t, base.Filters, "input filters must not change")
		})
	}
}

func TestReduceNoop(t *testing.T) {
	t.Parallel()

	q := NewQuery(10, Sort{})
	q = Reduce(q, 0, SetFilter{Key: "status", Value: "Pending"})

	assert.True(t, Reduce(q, 0, SetFilter{Key: "status", Value: "Pending"}).Equal(q))
	assert.True(t, Reduce(q, 0, SetSearch{Text: "   "}).Equal(q))
	assert.True(t, Reduce(q, 0, SetPageSize{Size: 0}).Equal(q))
	assert.True(t, Reduce(q, 0, nil).Equal(q))

	cleared := Reduce(q, 0, SetFilter{Key: "status", Value: ""})
	assert.NotContains(t, cleared.Filters, "status")
}

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	q := NewQuery(20, Sort{Key: "created", Direction: Desc})
	q = Reduce(q, 0, SetSearch{Text: "fire"})
	q = Reduce(q, 0, SetFilter{Key: "status", Value: "Pending"})
	q = Reduce(q, 0, SetFilter{Key: "station", Value: "Ikeja"})
	q.Page = 2

	t.Run("local backend", func(t *testing.T) {
		t.Parallel()

		req := BuildRequest(q, Capabilities{})
		assert.Zero(t, req.Page)
		assert.Empty(t, req.Search)
		assert.Empty(t, req.Sort.Key)
		assert.Empty(t, req.Filters)
	})

	t.Run("remote backend", func(t *testing.T) {
		t.Parallel()

		req := BuildRequest(q, Capabilities{
			Search: true, Paging: true,
			Sort:    []string{"created"},
			Filters: []string{"status"},
		})
		assert.Equal(t, 2, req.Page)
		assert.Equal(t, 20, req.PageSize)
		assert.Equal(t, "fire", req.Search)
		assert.Equal(t, Sort{Key: "created", Direction: Desc}, req.Sort)
		assert.Equal(t, map[string]string{"status": "Pending"}, req.Filters)
	})
}

func TestRequestKey(t *testing.T) {
	t.Parallel()

	a := Request{Page: 1, PageSize: 10, Filters: map[string]string{"a": "1", "b": "2"}}
	b := Request{Page: 1, PageSize: 10, Filters: map[string]string{"b": "2", "a": "1"}}
	c := Request{Page: 2, PageSize: 10, Filters: map[string]string{"a": "1", "b": "2"}}

	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), c.Key())
	require.Empty(t, Request{}.Key())
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	cases := map[[2]int]int{
		{0, 10}:  1,
		{1, 10}:  1,
		{10, 10}: 1,
		{11, 10}: 2,
		{25, 10}: 3,
		{5, 0}:   1,
	}

	for in, want := range cases {
		assert.Equal(t, want, TotalPages(in[0], in[1]), "total=%d size=%d", in[0], in[1])
	}

	p := NewPagination(25, 4, 10)
	assert.True(t, p.OutOfRange())
	assert.True(t, NewPagination(0, 4, 10).OutOfRange())
	assert.False(t, NewPagination(0, 1, 10).OutOfRange())
}
