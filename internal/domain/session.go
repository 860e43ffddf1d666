package domain

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/export"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

// DefaultMaxExportPages bounds the pages walked by an export of a
// backend-paged screen.
const DefaultMaxExportPages = 200

// Snapshot is a listing state rendered to text, independent of the row type.
type Snapshot struct {
	Screen      string
	Title       string
	Status      listing.Status
	Query       listing.Query
	SearchInput string
	Headers     []string
	Rows        [][]string
	IDs         []string
	Filtered    int
	Pagination  listing.Pagination
	Err         error
	HasData     bool
	Stale       bool
	Fatal       bool
	Empty       bool
	CanExport   bool
	LoadedAt    time.Time
}

// Session drives one open list screen. It hides the row type from the CLI
// and the TUI.
type Session interface {
	Name() string
	Title() string
	Headers() []string
	FilterKeys() []string
	SortKeys() []string
	ActionNames() []string

	Start()
	Snapshot() Snapshot
	Wait(ctx context.Context) error
	Refresh(ctx context.Context) (Snapshot, error)

	SetSearch(text string)
	FlushSearch()
	SetFilter(key, value string)
	SetSort(key string)
	SetPage(page int)
	SetPageSize(size int)
	NextPage()
	PrevPage()
	ClearAll()
	Retry()

	FilterOptions(ctx context.Context, keys ...string) (map[string][]string, error)
	Export(ctx context.Context, dir string, format export.Format) (export.Result, error)
	Perform(ctx context.Context, action, id, arg string) error

	Close()
}

// SessionOptions configures Open.
type SessionOptions struct {
	PageSize int
	Debounce time.Duration
	// Query is the initial query; zero starts unfiltered.
	Query          listing.Query
	MaxExportPages int
	Logger         logger.Logger
	Observer       listing.Observer
	OnChange       func(Snapshot)
	Now            func() time.Time
}

type session[T any] struct {
	screen   Screen[T]
	resource *api.Resource[T]
	ctrl     *listing.Controller[T]
	exporter export.Exporter[T]
	log      logger.Logger
	maxPages int
}

// Open binds screen to the API client and returns an idle session. Call
// Start to load the first page.
func Open[T any](screen Screen[T], client *api.Client, opts SessionOptions) (Session, error) {
	if client == nil {
		return nil, ewrap.New("api client is required").WithMetadata("screen", screen.Name)
	}

	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	if opts.MaxExportPages <= 0 {
		opts.MaxExportPages = DefaultMaxExportPages
	}

	s := &session[T]{
		screen:   screen,
		resource: api.NewResource[T](client, screen.Endpoint),
		exporter: screen.Exporter(opts.Now),
		log:      opts.Logger.WithFields(logger.F("screen", screen.Name)),
		maxPages: opts.MaxExportPages,
	}

	var onChange func(listing.State[T])
	if opts.OnChange != nil {
		onChange = func(state listing.State[T]) { opts.OnChange(s.render(state)) }
	}

	ctrl, err := listing.New(listing.Options[T]{
		Name:          screen.Name,
		Source:        s.resource,
		Schema:        screen.Schema,
		Query:         opts.Query,
		PageSize:      opts.PageSize,
		Debounce:      opts.Debounce,
		FilterOptions: s.resource,
		Logger:        opts.Logger,
		Observer:      opts.Observer,
		OnChange:      onChange,
		Now:           opts.Now,
	})
	if err != nil {
		return nil, err
	}

	s.ctrl = ctrl

	return s, nil
}

func (s *session[T]) Name() string          { return s.screen.Name }
func (s *session[T]) Title() string         { return s.screen.Title }
func (s *session[T]) Headers() []string     { return s.exporter.Headers() }
func (s *session[T]) FilterKeys() []string  { return s.screen.Schema.FilterKeys() }
func (s *session[T]) ActionNames() []string { return s.screen.ActionNames() }

func (s *session[T]) SortKeys() []string {
	keys := make([]string, 0, len(s.screen.Schema.Fields))
	for _, f := range s.screen.Schema.Fields {
		keys = append(keys, f.Name)
	}

	return keys
}

func (s *session[T]) Start()                         { s.ctrl.Start() }
func (s *session[T]) Snapshot() Snapshot             { return s.render(s.ctrl.Snapshot()) }
func (s *session[T]) Wait(ctx context.Context) error { return s.ctrl.Wait(ctx) }
func (s *session[T]) SetSearch(text string)          { s.ctrl.SetSearch(text) }
func (s *session[T]) FlushSearch()                   { s.ctrl.FlushSearch() }
func (s *session[T]) SetFilter(key, value string)    { s.ctrl.SetFilter(key, value) }
func (s *session[T]) SetSort(key string)             { s.ctrl.SetSort(key) }
func (s *session[T]) SetPage(page int)               { s.ctrl.SetPage(page) }
func (s *session[T]) SetPageSize(size int)           { s.ctrl.SetPageSize(size) }
func (s *session[T]) NextPage()                      { s.ctrl.NextPage() }
func (s *session[T]) PrevPage()                      { s.ctrl.PrevPage() }
func (s *session[T]) ClearAll()                      { s.ctrl.ClearAll() }
func (s *session[T]) Retry()                         { s.ctrl.Retry() }
func (s *session[T]) Close()                         { s.ctrl.Close() }

func (s *session[T]) Refresh(ctx context.Context) (Snapshot, error) {
	state, err := s.ctrl.Refresh(ctx)

	return s.render(state), err
}

func (s *session[T]) FilterOptions(ctx context.Context, keys ...string) (map[string][]string, error) {
	return s.ctrl.FilterOptions(ctx, keys...)
}

// Export writes the filtered rows. Locally paged screens export what is
// loaded; backend-paged screens walk every page of the current query.
func (s *session[T]) Export(ctx context.Context, dir string, format export.Format) (export.Result, error) {
	state := s.ctrl.Snapshot()

	if state.Status == listing.StatusIdle || !state.HasData {
		return export.Result{}, export.ErrNothingToExport
	}

	rows := state.View.Filtered

	if s.screen.Schema.Remote.Paging {
		all, err := listing.CollectAll(ctx, s.resource, state.Query, s.screen.Schema, s.maxPages)
		if err != nil && len(all) == 0 {
			return export.Result{}, ewrap.Wrap(err, "collecting export rows").WithMetadata("screen", s.screen.Name)
		}

		if err != nil {
			s.log.WithError(err).Warn("export truncated")
		}

		rows = all
	}

	res, err := s.exporter.Save(dir, format, rows)
	if err != nil {
		return res, err
	}

	s.log.WithFields(
		logger.F("path", res.Path),
		logger.F("rows", res.Rows),
		logger.F("format", string(format)),
	).Info("export written")

	return res, nil
}

// Perform runs a row action and reloads the list on success.
func (s *session[T]) Perform(ctx context.Context, action, id, arg string) error {
	a, ok := s.screen.Action(action)
	if !ok {
		return ewrap.New("unknown action").
			WithMetadata("screen", s.screen.Name).
			WithMetadata("action", action)
	}

	if strings.TrimSpace(id) == "" {
		return ewrap.New("row id is required").WithMetadata("action", action)
	}

	var body any
	if a.Body != nil {
		body = a.Body(arg)
	}

	var err error

	switch {
	case a.Method == http.MethodDelete && a.Path == "":
		err = s.resource.Delete(ctx, id)
	case a.Path == "":
		_, err = s.resource.Update(ctx, id, body)
	default:
		err = s.resource.Action(ctx, a.Method, id, a.Path, body)
	}

	if err != nil {
		return err
	}

	s.log.WithContext(ctx).WithFields(logger.F("action", action), logger.F("id", id)).Info("row action applied")
	s.ctrl.Invalidate()

	return nil
}

func (s *session[T]) render(state listing.State[T]) Snapshot {
	rows := make([][]string, len(state.View.Rows))
	ids := make([]string, len(state.View.Rows))

	for i, row := range state.View.Rows {
		rows[i] = s.exporter.Record(row)
		if s.screen.RowID != nil {
			ids[i] = s.screen.RowID(row)
		}
	}

	return Snapshot{
		Screen:      s.screen.Name,
		Title:       s.screen.Title,
		Status:      state.Status,
		Query:       state.Query,
		SearchInput: state.SearchInput,
		Headers:     s.exporter.Headers(),
		Rows:        rows,
		IDs:         ids,
		Filtered:    len(state.View.Filtered),
		Pagination:  state.View.Pagination,
		Err:         state.Err,
		HasData:     state.HasData,
		Stale:       state.Stale,
		Fatal:       state.Fatal(),
		Empty:       state.Empty(),
		CanExport:   state.CanExport(),
		LoadedAt:    state.LoadedAt,
	}
}
