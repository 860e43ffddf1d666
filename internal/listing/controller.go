package listing

import (
	"context"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

// Observer receives fetch lifecycle events, typically for metrics.
type Observer interface {
	FetchStarted(screen string)
	FetchCompleted(screen string, elapsed time.Duration, err error)
	ResponseDiscarded(screen string)
}

// Options configures a Controller.
type Options[T any] struct {
	// Name identifies the screen in logs and metrics.
	Name   string
	Source Source[T]
	Schema Schema[T]
	// Query is the initial query; the zero value starts unfiltered on page 1.
	Query    Query
	PageSize int
	Debounce time.Duration
	// FilterOptions serves option sets for filter pickers (optional).
	FilterOptions OptionsSource
	Logger        logger.Logger
	Observer      Observer
	// OnChange receives every new state. Calls are serialized and run
	// outside the controller lock. Only Snapshot, Schema and Name may be
	// called from it; any other controller method, Wait and Close included,
	// deadlocks. Hand the state to another goroutine to act on it.
	OnChange func(State[T])
	Now      func() time.Time
}

// Controller owns the state of one list screen. All methods are safe for
// concurrent use; results of superseded fetches are discarded.
type Controller[T any] struct {
	name     string
	source   Source[T]
	schema   Schema[T]
	options  OptionsSource
	log      logger.Logger
	observer Observer
	onChange func(State[T])
	now      func() time.Time
	search   *Debouncer[pendingSearch]

	ctx      context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup
	notifyMu sync.Mutex

	mu          sync.Mutex
	closed      bool
	query       Query
	searchInput string
	searchGen   uint64
	status      Status
	err         error
	view        View[T]
	cache       *Page[T]
	cacheKey    string
	stale       bool
	loadedAt    time.Time
	gen         uint64
	cancel      context.CancelFunc
	done        chan struct{}
}

// New builds a controller in the Idle state. Call Start to issue the first load.
func New[T any](opts Options[T]) (*Controller[T], error) {
	if opts.Source == nil {
		return nil, ewrap.New("listing source is required").WithMetadata("screen", opts.Name)
	}

	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	query := opts.Query
	if query.PageSize <= 0 {
		query.PageSize = max(opts.PageSize, 1)
	}

	if query.Page <= 0 {
		query.Page = 1
	}

	if query.Sort.Key == "" && opts.Schema.DefaultSort.Key != "" {
		query.Sort = opts.Schema.DefaultSort
	}

	if query.Sort.Key != "" && query.Sort.Direction == "" {
		query.Sort.Direction = Asc
	}

	query = query.clone()

	ctx, shutdown := context.WithCancel(context.Background())

	c := &Controller[T]{
		name:        opts.Name,
		source:      opts.Source,
		schema:      opts.Schema,
		options:     opts.FilterOptions,
		log:         opts.Logger.WithFields(logger.F("screen", opts.Name)),
		observer:    opts.Observer,
		onChange:    opts.OnChange,
		now:         opts.Now,
		ctx:         ctx,
		shutdown:    shutdown,
		query:       query,
		searchInput: query.Search,
	}

	c.search = NewDebouncer(opts.Debounce, c.applySearch)

	return c, nil
}

// pendingSearch is debounced search input, tagged with the search generation
// it was typed in. ClearAll starts a new generation.
type pendingSearch struct {
	text string
	gen  uint64
}

// Start issues the first load. It does nothing once the controller left Idle.
func (c *Controller[T]) Start() {
	c.mu.Lock()

	if c.closed || c.status != StatusIdle {
		c.mu.Unlock()

		return
	}

	c.syncLocked(true)
	c.mu.Unlock()
	c.notify()
}

// SetSearch records the raw input right away and applies it to the query
// once typing pauses for the debounce interval.
func (c *Controller[T]) SetSearch(text string) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return
	}

	c.searchInput = text
	gen := c.searchGen
	c.mu.Unlock()

	c.search.Push(pendingSearch{text: text, gen: gen})
	c.notify()
}

func (c *Controller[T]) applySearch(p pendingSearch) {
	c.mu.Lock()

	if c.closed || p.gen != c.searchGen {
		c.mu.Unlock()

		return
	}

	c.dispatchLocked(SetSearch{Text: p.text})
	c.mu.Unlock()
	c.notify()
}

// FlushSearch applies a pending search input immediately.
func (c *Controller[T]) FlushSearch() { c.search.Flush() }

// SetFilter sets or clears one filter.
func (c *Controller[T]) SetFilter(key, value string) { c.Dispatch(SetFilter{Key: key, Value: value}) }

// SetSort sorts by key, flipping direction on the active key.
func (c *Controller[T]) SetSort(key string) { c.Dispatch(SetSort{Key: key}) }

// SetPage moves to page n.
func (c *Controller[T]) SetPage(n int) { c.Dispatch(SetPage{Page: n}) }

// NextPage moves one page forward.
func (c *Controller[T]) NextPage() {
	c.mu.Lock()
	page := c.query.Page + 1
	c.mu.Unlock()

	c.SetPage(page)
}

// PrevPage moves one page back.
func (c *Controller[T]) PrevPage() {
	c.mu.Lock()
	page := c.query.Page - 1
	c.mu.Unlock()

	c.SetPage(page)
}

// SetPageSize changes the page size.
func (c *Controller[T]) SetPageSize(n int) { c.Dispatch(SetPageSize{Size: n}) }

// ClearAll resets search, filters and sort, including pending search input.
func (c *Controller[T]) ClearAll() {
	c.search.Cancel()

	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return
	}

	c.searchGen++
	c.searchInput = ""
	c.dispatchLocked(ClearAll{Default: c.schema.DefaultSort})
	c.mu.Unlock()
	c.notify()
}

// Dispatch applies a Query State action and reloads or re-derives the view.
func (c *Controller[T]) Dispatch(a Action) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return
	}

	c.dispatchLocked(a)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller[T]) dispatchLocked(a Action) {
	next := Reduce(c.query, c.totalPagesLocked(), a)
	if next.Equal(c.query) {
		return
	}

	c.query = next
	if c.status != StatusIdle {
		c.syncLocked(false)
	}
}

// Retry reloads after an error. It does nothing in other states.
func (c *Controller[T]) Retry() {
	c.mu.Lock()

	if c.closed || c.status != StatusError {
		c.mu.Unlock()

		return
	}

	c.syncLocked(true)
	c.mu.Unlock()
	c.notify()
}

// Invalidate reloads the current query, keeping rows visible meanwhile. Use
// it after a mutation (delete, publish, update) changed the backend data.
func (c *Controller[T]) Invalidate() {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return
	}

	c.syncLocked(true)
	c.mu.Unlock()
	c.notify()
}

// Refresh reloads the current query and waits for the outcome. The returned
// error is the fetch error, if the load failed.
func (c *Controller[T]) Refresh(ctx context.Context) (State[T], error) {
	c.Invalidate()

	if err := c.Wait(ctx); err != nil {
		return c.Snapshot(), err
	}

	state := c.Snapshot()
	if state.Status == StatusError {
		return state, state.Err
	}

	return state, nil
}

// Wait blocks until no fetch is in flight or ctx is done.
func (c *Controller[T]) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		done := c.done
		c.mu.Unlock()

		if done == nil {
			return nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Schema returns the row schema the controller was built with.
func (c *Controller[T]) Schema() Schema[T] { return c.schema }

// Name returns the screen name.
func (c *Controller[T]) Name() string { return c.name }

// ExportRows returns the filtered rows (all pages when paging is local).
func (c *Controller[T]) ExportRows() []T {
	return c.Snapshot().View.Filtered
}

// FilterOptions loads option sets for keys, falling back to the distinct
// values of the loaded rows.
func (c *Controller[T]) FilterOptions(ctx context.Context, keys ...string) (map[string][]string, error) {
	c.mu.Lock()

	var rows []T
	if c.cache != nil {
		rows = c.cache.Rows
	}

	c.mu.Unlock()

	return LoadOptions(ctx, c.options, rows, c.schema, keys...)
}

// Close cancels in-flight work and the pending search, then waits for the
// controller's goroutines. No OnChange call happens after Close returns.
func (c *Controller[T]) Close() {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return
	}

	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.shutdown()
	c.mu.Unlock()

	c.search.Stop()

	c.notifyMu.Lock()
	//nolint:staticcheck
	c.notifyMu.Unlock()

	c.wg.Wait()
}

func (c *Controller[T]) totalPagesLocked() int {
	if c.cache == nil {
		return 0
	}

	return c.view.Pagination.TotalPages
}

// syncLocked brings the view in line with the query, from the cache when the
// backend request would be identical, otherwise by fetching.
func (c *Controller[T]) syncLocked(force bool) {
	req := BuildRequest(c.query, c.schema.Remote)
	key := req.Key()

	if !force && c.cache != nil && key == c.cacheKey {
		c.supersedeLocked()

		c.status = StatusLoaded
		c.err = nil
		c.stale = false
		c.view = Transform(*c.cache, c.query, c.schema)
		c.clampLocked()

		return
	}

	c.startFetchLocked(req, key)
}

// supersedeLocked invalidates the in-flight fetch, if any.
func (c *Controller[T]) supersedeLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.gen++
}

func (c *Controller[T]) startFetchLocked(req Request, key string) {
	c.supersedeLocked()

	ctx, cancel := context.WithCancel(c.ctx)
	gen := c.gen
	done := make(chan struct{})

	c.cancel = cancel
	c.done = done
	c.status = StatusLoading
	c.stale = c.cache != nil

	c.wg.Add(1)

	go c.fetch(ctx, cancel, gen, req, key, done)
}

func (c *Controller[T]) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, req Request, key string, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)
	defer cancel()

	if c.observer != nil {
		c.observer.FetchStarted(c.name)
	}

	started := c.now()
	page, err := c.source.List(ctx, req)
	elapsed := c.now().Sub(started)

	c.mu.Lock()

	if c.done == done {
		c.done = nil
	}

	if c.closed || gen != c.gen {
		c.mu.Unlock()

		c.log.Debugf("discarding response for superseded request %d", gen)

		if c.observer != nil {
			c.observer.ResponseDiscarded(c.name)
		}

		return
	}

	c.cancel = nil

	if err != nil {
		c.status = StatusError
		c.err = err

		if c.cache != nil {
			c.view = Fallback(*c.cache, c.query, c.schema)
			c.stale = true
		}

		c.log.WithError(err).WithFields(logger.F("stale_rows", c.cache != nil)).Warn("list fetch failed")
	} else {
		c.cache = &page
		c.cacheKey = key
		c.status = StatusLoaded
		c.err = nil
		c.stale = false
		c.loadedAt = c.now()
		c.view = Transform(page, c.query, c.schema)
		c.clampLocked()
	}

	c.mu.Unlock()

	if c.observer != nil {
		c.observer.FetchCompleted(c.name, elapsed, err)
	}

	c.notify()
}

// clampLocked moves a page number past the last page back to it. An empty
// result has one page.
func (c *Controller[T]) clampLocked() {
	p := c.view.Pagination
	if c.query.Page <= p.TotalPages {
		return
	}

	c.log.Debugf("clamping page %d to %d", c.query.Page, p.TotalPages)

	c.query = c.query.clone()
	c.query.Page = p.TotalPages
	c.syncLocked(false)
}

func (c *Controller[T]) snapshotLocked() State[T] {
	return State[T]{
		Status:      c.status,
		Query:       c.query.clone(),
		SearchInput: c.searchInput,
		View:        c.view,
		Err:         c.err,
		HasData:     c.cache != nil,
		Stale:       c.stale,
		LoadedAt:    c.loadedAt,
		Requested:   c.gen,
	}
}

// notify delivers the latest state. notifyMu serializes callbacks so they
// observe states in order, and lets Close wait out a callback in progress.
func (c *Controller[T]) notify() {
	if c.onChange == nil {
		return
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return
	}

	state := c.snapshotLocked()
	c.mu.Unlock()

	c.onChange(state)
}
