package main

import (
	"context"
	"io"
	"strings"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/spf13/cobra"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/domain"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
)

type rootFlags struct {
	configFile string
	logLevel   string
}

// queryFlags are the list query flags shared by list, export and browse.
type queryFlags struct {
	search   string
	filters  []string
	sort     string
	desc     bool
	page     int
	pageSize int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "gatewayshield",
		Short:         "GatewayShield admin records from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newScreensCmd(),
		newListCmd(flags),
		newExportCmd(flags),
		newOptionsCmd(flags),
		newActionCmd(flags),
		newBrowseCmd(flags),
		newExportsCmd(flags),
	)

	return root
}

// run builds the app, hands it to fn and releases it afterwards.
func (f *rootFlags) run(cmd *cobra.Command, console bool, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, appOptions{
		configFile: f.configFile,
		logLevel:   f.logLevel,
		console:    console,
		stderr:     stderrOr(cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}

func (q *queryFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&q.search, "search", "s", "", "free text search")
	fs.StringArrayVarP(&q.filters, "filter", "f", nil, "filter as key=value, repeatable")
	fs.StringVar(&q.sort, "sort", "", "sort key")
	fs.BoolVar(&q.desc, "desc", false, "sort descending")
	fs.IntVarP(&q.page, "page", "p", 1, "page number")
	fs.IntVar(&q.pageSize, "page-size", 0, "rows per page (default listing.page_size)")
}

func (q *queryFlags) query(maxPageSize int) (listing.Query, error) {
	query := listing.Query{
		Search: strings.TrimSpace(q.search),
		Page:   q.page,
	}

	if q.pageSize > 0 {
		query.PageSize = q.pageSize
		if maxPageSize > 0 {
			query.PageSize = min(q.pageSize, maxPageSize)
		}
	}

	if q.sort != "" {
		query.Sort = listing.Sort{Key: q.sort, Direction: listing.Asc}
		if q.desc {
			query.Sort.Direction = listing.Desc
		}
	}

	for _, raw := range q.filters {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return listing.Query{}, ewrap.New("filters take the form key=value").WithMetadata("filter", raw)
		}

		if query.Filters == nil {
			query.Filters = map[string]string{}
		}

		query.Filters[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return query, nil
}

// load opens screen with query and waits for the first page.
func load(ctx context.Context, a *app, screen string, qf *queryFlags) (domain.Session, domain.Snapshot, error) {
	query, err := qf.query(a.cfg.Listing.MaxPageSize)
	if err != nil {
		return nil, domain.Snapshot{}, err
	}

	session, err := a.open(screen, query, nil)
	if err != nil {
		return nil, domain.Snapshot{}, err
	}

	session.Start()

	if err := session.Wait(ctx); err != nil {
		session.Close()

		return nil, domain.Snapshot{}, ewrap.Wrap(err, "waiting for records")
	}

	snap := session.Snapshot()
	if snap.Err != nil {
		session.Close()

		return nil, snap, snap.Err
	}

	return session, snap, nil
}

func screenArg(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return ewrap.New("a screen is required").WithMetadata("screens", domain.ScreenNames())
	}

	return cobra.MinimumNArgs(1)(cmd, args)
}
