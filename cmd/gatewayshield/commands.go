package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/config"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/domain"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/export"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/metrics"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/tui"
)

func newScreensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List the available screens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range domain.ScreenNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}
}

func newListCmd(flags *rootFlags) *cobra.Command {
	var (
		qf     queryFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list <screen>",
		Short: "Print one page of a screen",
		Args:  screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, true, func(ctx context.Context, a *app) error {
				session, snap, err := load(ctx, a, args[0], &qf)
				if err != nil {
					return err
				}
				defer session.Close()

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), snap)
				}

				writeTable(cmd.OutOrStdout(), snap)

				return nil
			})
		},
	}

	qf.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		qf     queryFlags
		format string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export <screen>",
		Short: "Export the rows matching the query",
		Args:  screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, true, func(ctx context.Context, a *app) error {
				if format == "" {
					format = a.cfg.Export.Format
				}

				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}

				if dir == "" {
					dir = a.cfg.Export.Dir
				}

				session, snap, err := load(ctx, a, args[0], &qf)
				if err != nil {
					return err
				}
				defer session.Close()

				res, err := session.Export(ctx, dir, f)
				if err != nil {
					return err
				}

				if err := a.recordExport(ctx, res, snap); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\tsha256:%s\n", res.Path, res.Rows, res.Checksum)

				return nil
			})
		},
	}

	qf.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "", "csv, xlsx or pdf (default export.format)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default export.dir)")

	return cmd
}

func newOptionsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "options <screen> [filter-key...]",
		Short: "Print the values each filter accepts",
		Args:  screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, true, func(ctx context.Context, a *app) error {
				session, _, err := load(ctx, a, args[0], &queryFlags{page: 1})
				if err != nil {
					return err
				}
				defer session.Close()

				keys := args[1:]
				if len(keys) == 0 {
					keys = session.FilterKeys()
				}

				options, err := session.FilterOptions(ctx, keys...)
				if err != nil {
					return err
				}

				for _, key := range slices.Sorted(maps.Keys(options)) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, strings.Join(options[key], ", "))
				}

				return nil
			})
		},
	}
}

func newActionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "action <screen> <action> <id> [arg]",
		Short: "Run a row action such as publish, reject or delete",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, true, func(ctx context.Context, a *app) error {
				session, err := a.open(args[0], listing.Query{}, nil)
				if err != nil {
					return err
				}
				defer session.Close()

				var arg string
				if len(args) == 4 {
					arg = args[3]
				}

				if err := session.Perform(ctx, args[1], args[2], arg); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s applied to %s\n", args[1], args[2])

				return nil
			})
		},
	}
}

func newBrowseCmd(flags *rootFlags) *cobra.Command {
	var (
		qf     queryFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "browse <screen>",
		Short: "Open the interactive list screen",
		Args:  screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, false, func(ctx context.Context, a *app) error {
				return browse(ctx, a, args[0], &qf, format)
			})
		},
	}

	qf.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "", "export format (default export.format)")

	return cmd
}

func browse(ctx context.Context, a *app, screen string, qf *queryFlags, format string) error {
	if format == "" {
		format = a.cfg.Export.Format
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	query, err := qf.query(a.cfg.Listing.MaxPageSize)
	if err != nil {
		return err
	}

	updates := tui.NewNotifier()

	session, err := a.open(screen, query, updates.Send)
	if err != nil {
		return err
	}
	defer session.Close()

	watchConfig(a)

	g, gctx := errgroup.WithContext(ctx)
	uiCtx, stopUI := context.WithCancel(gctx)

	if addr := a.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			return metrics.Serve(uiCtx, addr, metrics.Router(a.registry), a.log)
		})
	}

	g.Go(func() error {
		defer stopUI()

		return tui.Run(uiCtx, session, updates, tui.Options{
			ExportDir: a.cfg.Export.Dir,
			Format:    f,
			OnExport:  a.recordExport,
		})
	})

	return g.Wait()
}

// watchConfig applies log level edits made while the TUI runs.
func watchConfig(a *app) {
	err := a.cfg.OnChange(func(next *config.Config) {
		a.log.SetLevel(next.Log.ParsedLevel())
		a.log.WithFields(logger.F("level", next.Log.ParsedLevel().String())).Info("config reloaded")
	}, func(err error) {
		a.log.WithError(err).Warn("config reload rejected")
	})
	if err != nil {
		a.log.WithError(err).Debug("config watch disabled")
	}
}

func newExportsCmd(flags *rootFlags) *cobra.Command {
	var (
		screen string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List archived exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.run(cmd, true, func(ctx context.Context, a *app) error {
				if a.archive == nil {
					return errArchiveDisabled
				}

				records, err := a.archive.Recent(ctx, screen, limit)
				if err != nil {
					return err
				}

				t := table.New().
					Border(lipgloss.NormalBorder()).
					Headers("Created", "Screen", "Format", "Rows", "Path")

				for _, r := range records {
					t.Row(r.CreatedAt.Format("2006-01-02 15:04"), r.Screen, r.Format, fmt.Sprint(r.Rows), r.Path)
				}

				fmt.Fprintln(cmd.OutOrStdout(), t.String())

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&screen, "screen", "", "only this screen")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries")

	return cmd
}

func writeTable(w io.Writer, snap domain.Snapshot) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(snap.Headers...).
		Rows(snap.Rows...)

	fmt.Fprintln(w, t.String())

	p := snap.Pagination
	fmt.Fprintf(w, "page %d of %d, %d records\n", p.CurrentPage, max(p.TotalPages, 1), p.Total)
}

type listOutput struct {
	Screen     string              `json:"screen"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
	Total      int                 `json:"total"`
	Rows       []map[string]string `json:"rows"`
}

func writeJSON(w io.Writer, snap domain.Snapshot) error {
	out := listOutput{
		Screen:     snap.Screen,
		Page:       snap.Pagination.CurrentPage,
		TotalPages: snap.Pagination.TotalPages,
		Total:      snap.Pagination.Total,
		Rows:       make([]map[string]string, len(snap.Rows)),
	}

	for i, row := range snap.Rows {
		out.Rows[i] = make(map[string]string, len(row))
		for j, cell := range row {
			out.Rows[i][snap.Headers[j]] = cell
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
