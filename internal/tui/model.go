// Package tui is the interactive terminal list screen.
package tui

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/domain"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/export"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
)

const (
	maxColumnWidth = 32
	tableHeight    = 12
	tableWidth     = 120
)

// Options configures the list screen.
type Options struct {
	ExportDir string
	Format    export.Format
	// OnExport is called after a successful export, for example to archive it.
	OnExport func(context.Context, export.Result, domain.Snapshot) error
}

type optionsMsg struct {
	options map[string][]string
	err     error
}

type exportedMsg struct {
	result export.Result
	err    error
}

// Model is the bubbletea model of one list screen.
type Model struct {
	ctx     context.Context
	session domain.Session
	updates *Notifier
	opts    Options

	keys    KeyMap
	styles  Styles
	table   table.Model
	search  textinput.Model
	spinner spinner.Model
	help    help.Model

	snap      domain.Snapshot
	options   map[string][]string
	filterIdx int
	message   string
	failed    bool
}

// New returns a model over session. The session must publish its snapshots
// through updates.
func New(ctx context.Context, session domain.Session, updates *Notifier, opts Options) Model {
	if opts.Format == "" {
		opts.Format = export.CSV
	}

	search := textinput.New()
	search.Placeholder = "search..."
	search.Prompt = "/ "
	search.CharLimit = 128

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	snap := session.Snapshot()

	tbl := table.New(
		table.WithColumns(columns(snap.Headers, snap.Rows)),
		table.WithRows(toRows(snap.Rows)),
		table.WithFocused(true),
		table.WithHeight(tableHeight),
		table.WithWidth(tableWidth),
	)

	return Model{
		ctx:     ctx,
		session: session,
		updates: updates,
		opts:    opts,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		table:   tbl,
		search:  search,
		spinner: spin,
		help:    help.New(),
		snap:    snap,
	}
}

// Run starts session and blocks until the user quits.
func Run(ctx context.Context, session domain.Session, updates *Notifier, opts Options) error {
	defer updates.Close()

	_, err := tea.NewProgram(New(ctx, session, updates, opts), tea.WithContext(ctx), tea.WithAltScreen()).Run()

	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	m.session.Start()

	return tea.Batch(m.spinner.Tick, m.updates.wait())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		return m.applySnapshot(domain.Snapshot(msg))
	case optionsMsg:
		if msg.err != nil {
			m.note(api.UserMessage(msg.err), true)
		} else {
			m.options = msg.options
		}

		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.note("export failed: "+api.UserMessage(msg.err), true)
		} else {
			m.note(fmt.Sprintf("exported %d rows to %s", msg.result.Rows, msg.result.Path), false)
		}

		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.help.Width = msg.Width

		return m, nil
	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}

		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) applySnapshot(snap domain.Snapshot) (tea.Model, tea.Cmd) {
	m.snap = snap
	m.table.SetColumns(columns(snap.Headers, snap.Rows))
	m.table.SetRows(toRows(snap.Rows))

	if !m.search.Focused() && m.search.Value() != snap.SearchInput {
		m.search.SetValue(snap.SearchInput)
	}

	cmds := []tea.Cmd{m.updates.wait()}

	if m.options == nil && snap.Status == listing.StatusLoaded {
		m.options = map[string][]string{}
		cmds = append(cmds, m.loadOptions())
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.search.Blur()
		m.session.FlushSearch()

		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.search.Blur()

		return m, nil
	}

	before := m.search.Value()

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)

	if m.search.Value() != before {
		m.session.SetSearch(m.search.Value())
	}

	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Search):
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Next):
		m.session.NextPage()
	case key.Matches(msg, m.keys.Prev):
		m.session.PrevPage()
	case key.Matches(msg, m.keys.Sort):
		m.session.SetSort(next(m.session.SortKeys(), m.snap.Query.Sort.Key))
	case key.Matches(msg, m.keys.Order):
		if m.snap.Query.Sort.Key != "" {
			m.session.SetSort(m.snap.Query.Sort.Key)
		}
	case key.Matches(msg, m.keys.Filter):
		if keys := m.session.FilterKeys(); len(keys) > 0 {
			m.filterIdx = (m.filterIdx + 1) % len(keys)
		}
	case key.Matches(msg, m.keys.Value):
		m.cycleFilterValue()
	case key.Matches(msg, m.keys.Clear):
		m.search.SetValue("")
		m.session.ClearAll()
	case key.Matches(msg, m.keys.Retry):
		if m.snap.Status == listing.StatusError {
			m.session.Retry()

			return m, nil
		}

		return m, m.refresh()
	case key.Matches(msg, m.keys.Export):
		if !m.snap.CanExport {
			m.note("nothing to export", true)

			return m, nil
		}

		return m, m.export()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *Model) cycleFilterValue() {
	field := m.filterField()
	if field == "" {
		return
	}

	// "" clears the filter and leads the cycle.
	values := append([]string{""}, m.options[field]...)
	m.session.SetFilter(field, next(values, m.snap.Query.Filter(field)))
}

func (m Model) filterField() string {
	keys := m.session.FilterKeys()
	if len(keys) == 0 {
		return ""
	}

	return keys[m.filterIdx%len(keys)]
}

func (m *Model) note(text string, failed bool) {
	m.message = text
	m.failed = failed
}

func (m Model) loadOptions() tea.Cmd {
	ctx, session := m.ctx, m.session

	return func() tea.Msg {
		options, err := session.FilterOptions(ctx, session.FilterKeys()...)

		return optionsMsg{options: options, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, session := m.ctx, m.session

	return func() tea.Msg {
		// The outcome arrives as a snapshot.
		_, _ = session.Refresh(ctx)

		return nil
	}
}

func (m Model) export() tea.Cmd {
	ctx, session, opts, snap := m.ctx, m.session, m.opts, m.snap

	return func() tea.Msg {
		res, err := session.Export(ctx, opts.ExportDir, opts.Format)
		if err == nil && opts.OnExport != nil {
			err = opts.OnExport(ctx, res, snap)
		}

		return exportedMsg{result: res, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.snap.Title))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(m.queryLine()))
	b.WriteString("\n\n")
	b.WriteString(m.body())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	if m.message != "" {
		style := m.styles.Notice
		if m.failed {
			style = m.styles.Error
		}

		b.WriteString(style.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) body() string {
	snap := m.snap

	switch {
	case snap.Status == listing.StatusIdle, snap.Status == listing.StatusLoading && !snap.HasData:
		return m.spinner.View() + " Loading..."
	case snap.Fatal:
		return m.styles.Error.Render(api.UserMessage(snap.Err)) + "\n" +
			m.styles.Muted.Render("press r to retry")
	case snap.Empty:
		return m.styles.Muted.Render("No records match the current search and filters.")
	default:
		return m.table.View()
	}
}

func (m Model) queryLine() string {
	q := m.snap.Query
	parts := make([]string, 0, len(q.Filters)+2)

	for _, k := range slices.Sorted(maps.Keys(q.Filters)) {
		parts = append(parts, k+"="+q.Filters[k])
	}

	if len(parts) == 0 {
		parts = append(parts, "no filters")
	}

	if field := m.filterField(); field != "" {
		parts = append(parts, "filter field: "+field)
	}

	if q.Sort.Key != "" {
		parts = append(parts, fmt.Sprintf("sort: %s %s", q.Sort.Key, q.Sort.Direction))
	}

	return strings.Join(parts, "  |  ")
}

func (m Model) statusLine() string {
	p := m.snap.Pagination

	line := fmt.Sprintf("Page %d of %d  |  %d records", p.CurrentPage, max(p.TotalPages, 1), p.Total)

	if m.snap.Status == listing.StatusLoading && m.snap.HasData {
		line += "  |  " + m.spinner.View() + " refreshing"
	}

	if m.snap.Stale && m.snap.Err != nil {
		line += "  |  " + m.styles.Warning.Render("showing cached rows: "+api.UserMessage(m.snap.Err))
	}

	return line
}

func columns(headers []string, rows [][]string) []table.Column {
	cols := make([]table.Column, len(headers))

	for i, h := range headers {
		width := utf8.RuneCountInString(h)

		for _, row := range rows {
			if i < len(row) {
				width = max(width, utf8.RuneCountInString(row[i]))
			}
		}

		cols[i] = table.Column{Title: h, Width: min(width, maxColumnWidth)}
	}

	return cols
}

func toRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}

	return out
}

// next returns the element after current in values, wrapping around.
func next(values []string, current string) string {
	if len(values) == 0 {
		return current
	}

	i := slices.Index(values, current)

	return values[(i+1)%len(values)]
}

var _ tea.Model = Model{}
