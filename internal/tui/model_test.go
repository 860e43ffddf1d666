package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/domain"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/export"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSession records the calls the model makes.
type fakeSession struct {
	mu    sync.Mutex
	calls []string
	snap  domain.Snapshot
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
}

func (f *fakeSession) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slicesClone(f.calls)
}

func slicesClone(s []string) []string { return append([]string(nil), s...) }

func (f *fakeSession) Name() string          { return "feedback" }
func (f *fakeSession) Title() string         { return "General Feedback" }
func (f *fakeSession) Headers() []string     { return []string{"Name", "Status"} }
func (f *fakeSession) FilterKeys() []string  { return []string{"status", "rating"} }
func (f *fakeSession) SortKeys() []string    { return []string{"name", "status", "createdAt"} }
func (f *fakeSession) ActionNames() []string { return []string{"publish"} }
func (f *fakeSession) Start()                { f.record("start") }
func (f *fakeSession) Snapshot() domain.Snapshot {
	return f.snap
}
func (f *fakeSession) Wait(context.Context) error { return nil }
func (f *fakeSession) Refresh(context.Context) (domain.Snapshot, error) {
	f.record("refresh")

	return f.snap, nil
}
func (f *fakeSession) SetSearch(text string)       { f.record("search:" + text) }
func (f *fakeSession) FlushSearch()                { f.record("flush") }
func (f *fakeSession) SetFilter(key, value string) { f.record("filter:" + key + "=" + value) }
func (f *fakeSession) SetSort(key string)          { f.record("sort:" + key) }
func (f *fakeSession) SetPage(int)                 { f.record("page") }
func (f *fakeSession) SetPageSize(int)             { f.record("size") }
func (f *fakeSession) NextPage()                   { f.record("next") }
func (f *fakeSession) PrevPage()                   { f.record("prev") }
func (f *fakeSession) ClearAll()                   { f.record("clear") }
func (f *fakeSession) Retry()                      { f.record("retry") }
func (f *fakeSession) Close()                      { f.record("close") }

func (f *fakeSession) FilterOptions(context.Context, ...string) (map[string][]string, error) {
	return map[string][]string{"status": {"Pending", "Rejected"}}, nil
}

func (f *fakeSession) Export(_ context.Context, dir string, format export.Format) (export.Result, error) {
	f.record("export:" + string(format))

	return export.Result{Path: dir + "/general-feedback.csv", Format: format, Rows: 2}, nil
}

func (f *fakeSession) Perform(context.Context, string, string, string) error { return nil }

func loaded() domain.Snapshot {
	return domain.Snapshot{
		Screen:  "feedback",
		Title:   "General Feedback",
		Status:  listing.StatusLoaded,
		Query:   listing.Query{Sort: listing.Sort{Key: "createdAt", Direction: listing.Desc}, Page: 1, PageSize: 10},
		Headers: []string{"Name", "Status"},
		Rows:    [][]string{{"Ada Obi", "Pending"}, {"Musa Bello", "Rejected"}},
		IDs:     []string{"1", "2"},
		Pagination: listing.Pagination{
			Total: 2, TotalPages: 1, CurrentPage: 1, PageSize: 10,
		},
		HasData:   true,
		CanExport: true,
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func newModel(t *testing.T, snap domain.Snapshot) (Model, *fakeSession) {
	t.Helper()

	fs := &fakeSession{snap: snap}
	n := NewNotifier()
	t.Cleanup(n.Close)

	return New(context.Background(), fs, n, Options{ExportDir: "out"}), fs
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd

	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyPress(k))
		m = next.(Model)
	}

	return m, cmd
}

func TestViewRendersLoadedRows(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, loaded())
	view := m.View()

	assert.Contains(t, view, "General Feedback")
	assert.Contains(t, view, "Ada Obi")
	assert.Contains(t, view, "Page 1 of 1  |  2 records")
	assert.Contains(t, view, "sort: createdAt desc")
}

func TestViewStates(t *testing.T) {
	t.Parallel()

	fatal := domain.Snapshot{
		Title:  "General Feedback",
		Status: listing.StatusError,
		Err:    &api.Error{Kind: api.KindPermission, Status: 403},
		Fatal:  true,
	}
	m, _ := newModel(t, fatal)
	assert.Contains(t, m.View(), "permission denied")
	assert.Contains(t, m.View(), "press r to retry")

	empty := loaded()
	empty.Rows, empty.IDs, empty.Empty, empty.CanExport = nil, nil, true, false
	m, _ = newModel(t, empty)
	assert.Contains(t, m.View(), "No records match")

	stale := loaded()
	stale.Status, stale.Stale, stale.Err = listing.StatusError, true, &api.Error{Kind: api.KindNetwork}
	m, _ = newModel(t, stale)
	assert.Contains(t, m.View(), "showing cached rows: could not reach the server")
	assert.Contains(t, m.View(), "Ada Obi")

	m, _ = newModel(t, domain.Snapshot{Title: "General Feedback", Status: listing.StatusLoading})
	assert.Contains(t, m.View(), "Loading...")
}

func TestSearchInput(t *testing.T) {
	t.Parallel()

	m, fs := newModel(t, loaded())

	m, _ = press(m, "/", "a", "b")
	assert.True(t, m.search.Focused())

	m, _ = press(m, "enter")
	assert.False(t, m.search.Focused())

	// keys typed while searching never reach the paging bindings
	assert.Equal(t, []string{"search:a", "search:ab", "flush"}, fs.Calls())

	_, _ = press(m, "c")
	assert.Equal(t, "clear", fs.Calls()[3])
}

func TestNavigationKeys(t *testing.T) {
	t.Parallel()

	m, fs := newModel(t, loaded())

	_, _ = press(m, "n", "right", "p", "s", "o")

	assert.Equal(t, []string{"next", "next", "prev", "sort:name", "sort:createdAt"}, fs.Calls())
}

func TestFilterCycling(t *testing.T) {
	t.Parallel()

	m, fs := newModel(t, loaded())

	next, cmd := m.Update(snapshotMsg(loaded()))
	m = next.(Model)
	require.NotNil(t, cmd)

	next, _ = m.Update(optionsMsg{options: map[string][]string{"status": {"Pending", "Rejected"}}})
	m = next.(Model)

	m, _ = press(m, "v")

	snap := loaded()
	snap.Query.Filters = map[string]string{"status": "Pending"}
	next, _ = m.Update(snapshotMsg(snap))
	m = next.(Model)

	m, _ = press(m, "v")
	assert.Contains(t, m.View(), "status=Pending")

	_, _ = press(m, "f", "v")

	assert.Equal(t, []string{"filter:status=Pending", "filter:status=Rejected", "filter:rating="}, fs.Calls())
}

func TestRetryAndRefresh(t *testing.T) {
	t.Parallel()

	failed := loaded()
	failed.Status = listing.StatusError
	failed.Err = errors.New("boom")

	m, fs := newModel(t, failed)
	_, cmd := press(m, "r")
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"retry"}, fs.Calls())

	m, fs = newModel(t, loaded())
	_, cmd = press(m, "r")
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"refresh"}, fs.Calls())
}

func TestExport(t *testing.T) {
	t.Parallel()

	empty := loaded()
	empty.CanExport = false

	m, fs := newModel(t, empty)
	m, cmd := press(m, "e")
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "nothing to export")
	assert.Empty(t, fs.Calls())

	var archived export.Result

	fs = &fakeSession{snap: loaded()}
	n := NewNotifier()
	t.Cleanup(n.Close)

	m = New(context.Background(), fs, n, Options{
		ExportDir: "out",
		OnExport: func(_ context.Context, res export.Result, _ domain.Snapshot) error {
			archived = res

			return nil
		},
	})

	m, cmd = press(m, "e")
	require.NotNil(t, cmd)

	msg := cmd()
	next, _ := m.Update(msg)
	m = next.(Model)

	assert.Equal(t, []string{"export:csv"}, fs.Calls())
	assert.Equal(t, 2, archived.Rows)
	assert.Contains(t, m.View(), "exported 2 rows to out/general-feedback.csv")
}

func TestNotifierKeepsLatest(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	defer n.Close()

	for i := 1; i <= 3; i++ {
		s := loaded()
		s.Pagination.CurrentPage = i
		n.Send(s)
	}

	msg := n.wait()()
	snap, ok := msg.(snapshotMsg)
	require.True(t, ok)
	assert.Equal(t, 3, snap.Pagination.CurrentPage)

	n.Close()
	assert.Nil(t, n.wait()())
	n.Send(loaded())
}

func TestColumnsWidth(t *testing.T) {
	t.Parallel()

	cols := columns([]string{"Id", "Comment"}, [][]string{{"12345", strings.Repeat("x", 50)}})

	assert.Equal(t, 5, cols[0].Width)
	assert.Equal(t, maxColumnWidth, cols[1].Width)
	assert.Equal(t, "b", next([]string{"a", "b"}, "a"))
	assert.Equal(t, "a", next([]string{"a", "b"}, "zzz"))
}
