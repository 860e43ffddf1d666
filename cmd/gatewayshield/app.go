package main

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/api"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/auth"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/config"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/domain"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/export"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger/adapter"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger/output"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/metrics"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/repository/pg"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/providers"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	client   *api.Client
	registry *prometheus.Registry
	metrics  *metrics.Recorder
	db       *pg.Manager
	archive  *pg.ArchiveStore
	writers  []output.Writer
}

type appOptions struct {
	configFile string
	logLevel   string
	// console sends logs to stderr; the TUI turns it off.
	console bool
	stderr  io.Writer
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.NewConfig(ctx, config.Options{ConfigFile: opts.configFile})
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	a := &app{cfg: cfg}

	a.log, err = a.newLogger(opts)
	if err != nil {
		return nil, err
	}

	provider, err := providers.New(ctx, cfg.Secrets)
	if err != nil {
		a.close()

		return nil, ewrap.Wrap(err, "building secrets provider")
	}

	if err := cfg.LoadSecrets(ctx, provider, 0); err != nil {
		a.close()

		return nil, err
	}

	token := auth.SecretToken{Provider: provider, Key: cfg.Secrets.TokenKey}

	a.client, err = api.NewClient(api.OptionsFromConfig(cfg.API, token, a.log))
	if err != nil {
		a.close()

		return nil, err
	}

	a.registry = prometheus.NewRegistry()

	a.metrics, err = metrics.New(a.registry)
	if err != nil {
		a.close()

		return nil, err
	}

	if cfg.Archive.Enabled {
		if err := a.openArchive(ctx); err != nil {
			a.close()

			return nil, err
		}
	}

	return a, nil
}

func (a *app) newLogger(opts appOptions) (logger.Logger, error) {
	if opts.console {
		a.writers = append(a.writers, output.NewConsoleWriter(opts.stderr))
	}

	if a.cfg.Log.File != "" {
		file, err := output.NewFileWriter(output.FileConfig{
			Path:     a.cfg.Log.File,
			MaxSize:  int64(a.cfg.Log.MaxSizeMB) * 1024 * 1024,
			Compress: a.cfg.Log.Compress,
		})
		if err != nil {
			return nil, err
		}

		a.writers = append(a.writers, file)
	}

	if len(a.writers) == 0 {
		return logger.Nop(), nil
	}

	mw, err := output.NewMultiWriter(a.writers...)
	if err != nil {
		return nil, err
	}

	lc := logger.DefaultConfig()
	lc.Output = mw
	lc.Level = a.cfg.Log.ParsedLevel()
	lc.EnableJSON = a.cfg.Log.JSON
	lc.EnableCaller = a.cfg.Log.Caller
	lc.AdditionalFields = []logger.Field{logger.F("env", a.cfg.Environment)}

	return adapter.NewAdapter(lc)
}

func (a *app) openArchive(ctx context.Context) error {
	a.db = pg.New(a.cfg.Archive.DB, a.log)

	if err := a.db.Connect(ctx); err != nil {
		return err
	}

	if err := a.db.Migrate(ctx); err != nil {
		return err
	}

	a.archive = pg.NewArchiveStore(a.db.Pool())

	return a.registry.Register(pg.NewPoolCollector(a.db))
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}

	if a.log != nil {
		_ = a.log.Sync()
	}

	for _, w := range a.writers {
		_ = w.Close()
	}
}

func (a *app) sessionOptions(query listing.Query) domain.SessionOptions {
	return domain.SessionOptions{
		PageSize: a.cfg.Listing.PageSize,
		Debounce: a.cfg.Listing.Debounce,
		Query:    query,
		Logger:   a.log,
		Observer: a.metrics,
	}
}

func (a *app) open(name string, query listing.Query, onChange func(domain.Snapshot)) (domain.Session, error) {
	opts := a.sessionOptions(query)
	opts.OnChange = onChange

	return domain.OpenScreen(name, a.client, opts)
}

// recordExport counts a written export and archives it when enabled.
func (a *app) recordExport(ctx context.Context, res export.Result, snap domain.Snapshot) error {
	a.metrics.ExportWritten(snap.Screen, string(res.Format), res.Rows)

	if a.archive == nil {
		return nil
	}

	rec, err := a.archive.Record(ctx, pg.ExportRecord{
		Screen:   snap.Screen,
		Format:   string(res.Format),
		Path:     res.Path,
		Rows:     res.Rows,
		Bytes:    res.Bytes,
		Checksum: res.Checksum,
		Query:    queryString(snap.Query),
	})
	if err != nil {
		return err
	}

	a.log.WithFields(logger.F("archive_id", rec.ID.String())).Debug("export archived")

	return nil
}

// queryString renders the user facing part of q for the archive.
func queryString(q listing.Query) string {
	values := url.Values{}

	if q.Search != "" {
		values.Set("search", q.Search)
	}

	for k, v := range q.Filters {
		values.Set(k, v)
	}

	if q.Sort.Key != "" {
		values.Set("sort", q.Sort.Key)
		values.Set("order", string(q.Sort.Direction))
	}

	return values.Encode()
}

func stderrOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}

	return w
}

var errArchiveDisabled = ewrap.New("the export archive is disabled (archive.enabled)")
