package listing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	started   atomic.Int32
	completed atomic.Int32
	failed    atomic.Int32
	discarded atomic.Int32
}

func (o *countingObserver) FetchStarted(string) { o.started.Add(1) }

func (o *countingObserver) FetchCompleted(_ string, _ time.Duration, err error) {
	o.completed.Add(1)

	if err != nil {
		o.failed.Add(1)
	}
}

func (o *countingObserver) ResponseDiscarded(string) { o.discarded.Add(1) }

// mutableSource serves rows without any backend query support and can be
// switched to failing.
type mutableSource struct {
	mu    sync.Mutex
	rows  []report
	err   error
	calls int
}

func (s *mutableSource) List(ctx context.Context, _ Request) (Page[report], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	if s.err != nil {
		return Page[report]{}, s.err
	}

	return Page[report]{Rows: append([]report(nil), s.rows...)}, ctx.Err()
}

func (s *mutableSource) set(rows []report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows, s.err = rows, err
}

func (s *mutableSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func newController(t *testing.T, opts Options[report]) *Controller[report] {
	t.Helper()

	if opts.PageSize == 0 {
		opts.PageSize = 10
	}

	if opts.Schema.Fields == nil {
		opts.Schema = reportSchema()
	}

	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c
}

func waitLoaded(t *testing.T, c *Controller[report]) State[report] {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, c.Wait(ctx))

	return c.Snapshot()
}

func TestNewRequiresSource(t *testing.T) {
	t.Parallel()

	_, err := New(Options[report]{Name: "reports"})
	require.Error(t, err)
}

func TestControllerLocalPaging(t *testing.T) {
	t.Parallel()

	src := &mutableSource{rows: makeReports(25)}
	c := newController(t, Options[report]{Name: "reports", Source: src})

	assert.Equal(t, StatusIdle, c.Snapshot().Status)

	c.Start()
	state := waitLoaded(t, c)
	require.Equal(t, StatusLoaded, state.Status)
	assert.Len(t, state.View.Rows, 10)
	assert.Equal(t, 3, state.View.Pagination.TotalPages)

	c.SetPage(4)
	state = c.Snapshot()
	assert.Equal(t, 3, state.Query.Page)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, ids(state.View.Rows))

	c.SetFilter("status", "Published")
	state = c.Snapshot()
	assert.Equal(t, 1, state.Query.Page)
	assert.Len(t, state.View.Filtered, 12)

	c.SetSort("id")
	c.SetSort("id")
	assert.Equal(t, 24, c.Snapshot().View.Rows[0].ID)

	assert.Equal(t, 1, src.count(), "local criteria never refetch")
	assert.Len(t, c.ExportRows(), 12)
}

func TestControllerDebouncedSearch(t *testing.T) {
	t.Parallel()

	src := &mutableSource{rows: makeReports(25)}
	c := newController(t, Options[report]{Source: src, Debounce: 10 * time.Millisecond})

	c.Start()
	waitLoaded(t, c)

	c.SetSearch("Report 0")
	c.SetSearch("Report 07")

	state := c.Snapshot()
	assert.Equal(t, "Report 07", state.SearchInput)
	assert.Empty(t, state.Query.Search)

	require.Eventually(t, func() bool {
		return c.Snapshot().Query.Search == "Report 07"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []int{7}, ids(c.Snapshot().View.Filtered))

	c.SetSearch("Report 1")
	c.FlushSearch()
	assert.Len(t, c.Snapshot().View.Filtered, 10)

	c.SetSearch("pending")
	c.ClearAll()

	state = c.Snapshot()
	assert.Empty(t, state.SearchInput)
	assert.Empty(t, state.Query.Search)
	assert.Len(t, state.View.Filtered, 25)
}

// recordingSource remembers every request it served.
type recordingSource struct {
	mu       sync.Mutex
	rows     []report
	requests []Request
}

func (s *recordingSource) List(ctx context.Context, req Request) (Page[report], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)

	return Page[report]{Rows: s.rows, Pagination: NewPagination(len(s.rows), req.Page, req.PageSize)}, ctx.Err()
}

func (s *recordingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

func (s *recordingSource) last() Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[len(s.requests)-1]
}

func TestControllerRemoteSearchFetchesOnce(t *testing.T) {
	t.Parallel()

	schema := reportSchema()
	schema.Remote = Capabilities{Paging: true, Search: true}

	src := &recordingSource{rows: makeReports(3)}
	c := newController(t, Options[report]{Source: src, Schema: schema, Debounce: 20 * time.Millisecond})

	c.Start()
	waitLoaded(t, c)
	require.Equal(t, 1, src.count())

	for _, text := range []string{"f", "fi", "fir", "fire"} {
		c.SetSearch(text)
	}

	require.Eventually(t, func() bool {
		return c.Snapshot().Query.Search == "fire"
	}, time.Second, 5*time.Millisecond)
	waitLoaded(t, c)

	// no further fetch once the input settled
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 2, src.count())
	assert.Equal(t, "fire", src.last().Search)
}

func TestControllerClearAllDropsPendingSearch(t *testing.T) {
	t.Parallel()

	src := &mutableSource{rows: makeReports(25)}
	c := newController(t, Options[report]{Source: src, Debounce: time.Hour})

	c.Start()
	waitLoaded(t, c)

	c.SetSearch("Report 07")

	c.mu.Lock()
	typed := pendingSearch{text: "Report 07", gen: c.searchGen}
	c.mu.Unlock()

	c.ClearAll()

	// a debounce callback that raced the clear arrives late
	c.applySearch(typed)

	state := c.Snapshot()
	assert.Empty(t, state.Query.Search)
	assert.Empty(t, state.SearchInput)
	assert.Len(t, state.View.Filtered, 25)

	c.SetSearch("Report 1")
	c.FlushSearch()
	assert.Equal(t, "Report 1", c.Snapshot().Query.Search)
}

func TestControllerSnapshotFromOnChange(t *testing.T) {
	t.Parallel()

	var seen atomic.Int32

	src := &mutableSource{rows: makeReports(3)}

	var c *Controller[report]

	c = newController(t, Options[report]{
		Source: src,
		OnChange: func(State[report]) {
			c.Snapshot()
			seen.Add(1)
		},
	})

	c.Start()
	waitLoaded(t, c)

	require.Eventually(t, func() bool { return seen.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestControllerDiscardsStaleResponses(t *testing.T) {
	t.Parallel()

	gates := map[string]chan struct{}{
		"Pending":   make(chan struct{}),
		"Published": make(chan struct{}),
	}
	rows := makeReports(6)

	schema := reportSchema()
	schema.Remote = Capabilities{Filters: []string{"status"}}

	src := SourceFunc[report](func(ctx context.Context, req Request) (Page[report], error) {
		status := req.Filters["status"]
		if gate, ok := gates[status]; ok {
			<-gate
		}

		var out []report

		for _, r := range rows {
			if status == "" || r.Status == status {
				out = append(out, r)
			}
		}

		return Page[report]{Rows: out}, nil
	})

	obs := &countingObserver{}
	c := newController(t, Options[report]{Source: src, Schema: schema, Observer: obs})

	c.Start()
	waitLoaded(t, c)

	c.SetFilter("status", "Pending")
	assert.Equal(t, StatusLoading, c.Snapshot().Status)
	assert.True(t, c.Snapshot().Stale)

	c.SetFilter("status", "Published")

	close(gates["Published"])
	require.Eventually(t, func() bool { return c.Snapshot().Status == StatusLoaded }, time.Second, 5*time.Millisecond)

	close(gates["Pending"])
	require.Eventually(t, func() bool { return obs.discarded.Load() == 1 }, time.Second, 5*time.Millisecond)

	state := c.Snapshot()
	assert.Equal(t, "Published", state.Query.Filter("status"))
	assert.Equal(t, []int{2, 4, 6}, ids(state.View.Rows))
	assert.False(t, state.Stale)
	assert.Equal(t, int32(3), obs.started.Load())
	assert.Equal(t, int32(2), obs.completed.Load())
}

func TestControllerErrorKeepsRows(t *testing.T) {
	t.Parallel()

	src := &mutableSource{rows: makeReports(12)}
	c := newController(t, Options[report]{Source: src})

	c.Start()
	waitLoaded(t, c)

	boom := errors.New("connection refused")
	src.set(nil, boom)

	state, err := c.Refresh(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusError, state.Status)
	assert.True(t, state.HasData)
	assert.True(t, state.Stale)
	assert.False(t, state.Fatal())
	assert.Len(t, state.View.Rows, 10)

	c.SetFilter("status", "Pending")
	state = c.Snapshot()
	assert.Equal(t, StatusLoaded, state.Status, "the cached rows answer the unchanged request")
	assert.Len(t, state.View.Filtered, 6)

	src.set(makeReports(3), nil)
	c.Invalidate()
	state = waitLoaded(t, c)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Len(t, state.View.Filtered, 2)
}

func TestControllerFirstLoadFailure(t *testing.T) {
	t.Parallel()

	src := &mutableSource{err: errors.New("unauthorized")}
	obs := &countingObserver{}
	c := newController(t, Options[report]{Source: src, Observer: obs})

	c.Start()
	state := waitLoaded(t, c)
	assert.True(t, state.Fatal())
	assert.False(t, state.CanExport())
	assert.Equal(t, int32(1), obs.failed.Load())

	src.set(makeReports(2), nil)
	c.Retry()
	state = waitLoaded(t, c)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Nil(t, state.Err)
	assert.Len(t, state.View.Rows, 2)

	c.Retry()
	assert.Equal(t, 2, src.count(), "retry only acts on errors")
}

func TestControllerClampsAfterShrink(t *testing.T) {
	t.Parallel()

	src := &mutableSource{rows: makeReports(25)}
	c := newController(t, Options[report]{Source: src})

	c.Start()
	waitLoaded(t, c)
	c.SetPage(3)

	src.set(makeReports(15), nil)
	c.Invalidate()

	state := waitLoaded(t, c)
	assert.Equal(t, 2, state.Query.Page)
	assert.Equal(t, []int{11, 12, 13, 14, 15}, ids(state.View.Rows))
}

func TestControllerClampsEmptyResult(t *testing.T) {
	t.Parallel()

	src := &mutableSource{}
	c := newController(t, Options[report]{Source: src, Query: Query{Page: 4}})

	c.Start()

	state := waitLoaded(t, c)
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Equal(t, 1, state.Query.Page)
	assert.Equal(t, 1, state.View.Pagination.TotalPages)

	src.set(makeReports(25), nil)
	c.Invalidate()
	waitLoaded(t, c)
	c.SetPage(3)

	src.set(nil, nil)
	c.Invalidate()

	state = waitLoaded(t, c)
	assert.Equal(t, 1, state.Query.Page)
	assert.Empty(t, state.View.Rows)
}

func TestControllerRemotePaging(t *testing.T) {
	t.Parallel()

	rows := makeReports(23)

	var requested []int

	var mu sync.Mutex

	schema := reportSchema()
	schema.Remote = Capabilities{Paging: true}

	src := SourceFunc[report](func(_ context.Context, req Request) (Page[report], error) {
		mu.Lock()
		requested = append(requested, req.Page)
		mu.Unlock()

		p := NewPagination(len(rows), req.Page, req.PageSize)
		start, end := p.Bounds(len(rows))

		return Page[report]{Rows: rows[start:end], Pagination: p}, nil
	})

	c := newController(t, Options[report]{Source: src, Schema: schema})

	c.Start()
	waitLoaded(t, c)

	c.NextPage()
	waitLoaded(t, c)
	c.NextPage()
	state := waitLoaded(t, c)

	assert.Equal(t, 3, state.Query.Page)
	assert.Equal(t, []int{21, 22, 23}, ids(state.View.Rows))

	c.NextPage()
	c.PrevPage()
	state = waitLoaded(t, c)
	assert.Equal(t, 2, state.Query.Page)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []int{1, 2, 3, 2}, requested)
}

func TestControllerNoNotificationsAfterClose(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	var (
		mu      sync.Mutex
		states  []State[report]
		blocked atomic.Bool
	)

	src := SourceFunc[report](func(ctx context.Context, _ Request) (Page[report], error) {
		if blocked.Load() {
			select {
			case <-release:
			case <-ctx.Done():
				return Page[report]{}, ctx.Err()
			}
		}

		return Page[report]{Rows: makeReports(3)}, nil
	})

	c, err := New(Options[report]{
		Source:   src,
		Schema:   reportSchema(),
		PageSize: 10,
		OnChange: func(s State[report]) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	c.Start()
	waitLoaded(t, c)

	blocked.Store(true)
	c.Invalidate()
	c.SetSearch("pending")
	c.Close()
	close(release)

	mu.Lock()
	seen := len(states)
	last := states[seen-1]
	mu.Unlock()

	c.SetFilter("status", "Pending")
	c.Start()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Len(t, states, seen)
	assert.Equal(t, StatusLoading, last.Status)
	assert.Equal(t, "pending", last.SearchInput)
}

func TestControllerFilterOptions(t *testing.T) {
	t.Parallel()

	src := &mutableSource{rows: makeReports(4)}
	c := newController(t, Options[report]{Source: src, FilterOptions: fakeOptions{"title": {"X"}}})

	c.Start()
	waitLoaded(t, c)

	got, err := c.FilterOptions(context.Background(), "status", "title")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pending", "Published"}, got["status"])
	assert.Equal(t, []string{"X"}, got["title"])
}
