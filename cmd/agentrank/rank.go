package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/FranksOps/agentrank/internal/analyzer"
	"github.com/FranksOps/agentrank/internal/config"
	"github.com/FranksOps/agentrank/internal/export"
	"github.com/FranksOps/agentrank/internal/export/csvexport"
	"github.com/FranksOps/agentrank/internal/export/jsonexport"
	"github.com/FranksOps/agentrank/internal/export/postgres"
	"github.com/FranksOps/agentrank/internal/export/sqlite"
	"github.com/FranksOps/agentrank/internal/fingerprint"
	"github.com/FranksOps/agentrank/internal/metrics"
	"github.com/FranksOps/agentrank/internal/pipeline"
	"github.com/FranksOps/agentrank/internal/ranking"
	"github.com/FranksOps/agentrank/internal/report"
	"github.com/FranksOps/agentrank/internal/scraper"
	"github.com/FranksOps/agentrank/internal/serp"
	"github.com/FranksOps/agentrank/pkg/proxy"
	"github.com/FranksOps/agentrank/pkg/ratelimit"
	"github.com/FranksOps/agentrank/pkg/useragent"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// NewRankCmd creates the rank command.
func NewRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank <area>",
		Short: "Search an area and print the top ranked agent sites",
		Long: `Rank searches every query phrasing for the area, filters out portals,
brokerages and other non-agent sites, and prints the sites with the lowest
total score. A site's total score is the sum of its best position in each
query that returned it; lower is better.

Examples:
  # Top 5 sites for Austin from Google
  agentrank rank "Austin, TX"

  # Top 10 from DuckDuckGo as a Markdown file
  agentrank rank -p duckduckgo -n 10 -f markdown -o austin.md "Austin, TX"

  # Replay canned results and save them to SQLite
  agentrank rank --fixture results.yaml --sqlite runs.db "Austin, TX"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRankCmd,
	}

	f := cmd.Flags()
	f.IntP("top", "n", config.DefaultTop, "Number of ranked results to print")
	f.IntP("results", "r", config.DefaultResults, "Results requested per query")
	f.StringP("provider", "p", config.DefaultProvider, "Search provider: "+strings.Join(serp.Names(), ", "))
	f.StringSlice("template", nil, "Query template containing {area} (repeatable, replaces the built-in set)")
	f.Int("concurrency", config.DefaultConcurrency, "Queries searched in parallel")
	f.Int("penalty", 0, "Score added for every query a site is missing from")
	f.Bool("penalize", false, "Charge results+1 for every missed query when --penalty is 0")
	f.String("key", config.DefaultKeyMode, "Group hits by url or title")
	f.Bool("verify", false, "Fetch each result's landing page and keep only agent pages")
	f.StringSlice("deny", nil, "Extra denylist pattern (repeatable)")
	f.Bool("no-default-deny", false, "Do not use the built-in denylist")
	f.String("fixture", "", "Answer searches from a YAML fixture instead of a live provider")
	f.Duration("timeout", config.DefaultTimeout, "Per-request timeout")
	f.Int("retries", config.DefaultRetries, "Retries for transport errors and 5xx responses")
	f.Float64("rps", config.DefaultRPS, "Maximum requests per second, 0 for unlimited")
	f.String("fingerprint", config.DefaultFingerprint, "TLS fingerprint: "+strings.Join(fingerprint.Profiles(), ", "))
	f.String("proxy-file", "", "File with one proxy URL per line")
	f.Bool("robots", true, "Honour robots.txt when verifying landing pages")
	f.StringP("format", "f", config.DefaultFormat, "Output format: "+strings.Join(report.Formats(), ", "))
	f.StringP("output", "o", "", "Write the report to this file instead of stdout")
	f.String("csv", "", "Append results to this CSV file")
	f.String("json-out", "", "Append the report to this NDJSON file")
	f.String("sqlite", "", "Save the report to this SQLite database")
	f.String("postgres", "", "Save the report to this PostgreSQL DSN")
	f.Int("metrics-port", 0, "Serve Prometheus metrics on this port while running")
	f.Bool("no-progress", false, "Hide the progress bar")

	return cmd
}

func runRankCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog, err := setupLogger(cmd.ErrOrStderr(), cfg.Log, getVerboseFlag(cmd))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	area := strings.TrimSpace(strings.Join(args, " "))
	if area == "" {
		return errors.New("area cannot be empty")
	}
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	return runRank(ctx, cfg, area, rankIO{
		out:      cmd.OutOrStdout(),
		progress: progressWriter(cmd.ErrOrStderr(), noProgress),
	}, logger)
}

// rankIO carries the writers a run prints to. A nil progress hides the bar.
type rankIO struct {
	out      io.Writer
	progress io.Writer
}

func progressWriter(w io.Writer, disabled bool) io.Writer {
	if disabled {
		return nil
	}
	return w
}

func runRank(ctx context.Context, cfg *config.Config, area string, rio rankIO, logger *slog.Logger) error {
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	keyMode, err := ranking.ParseKeyMode(cfg.Search.Key)
	if err != nil {
		return err
	}

	if cfg.Metrics.Port > 0 {
		srv := metrics.Start(cfg.Metrics.Port, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	p := &pipeline.Pipeline{
		Denylist: buildDenylist(cfg.Search),
		Logger:   logger,
	}

	var fetcher *scraper.Fetcher
	if cfg.Search.Fixture == "" || cfg.Search.Verify {
		fetcher, err = buildFetcher(cfg.HTTP, logger)
		if err != nil {
			return err
		}
	}

	if cfg.Search.Fixture != "" {
		static, err := serp.LoadStatic(cfg.Search.Fixture)
		if err != nil {
			return err
		}
		p.Provider = static
	} else {
		p.Provider, err = serp.New(cfg.Search.Provider, fetcher, logger)
		if err != nil {
			return err
		}
	}

	if cfg.Search.Verify {
		var robots *scraper.RobotsTxtAuditor
		if cfg.HTTP.RespectRobots {
			robots = scraper.NewRobotsTxtAuditor(fetcher, logger)
		}
		p.Verifier = scraper.NewPageVerifier(fetcher, robots, logger)
	}

	runCfg := pipeline.Config{
		Area:            area,
		Templates:       cfg.Search.Templates,
		Top:             cfg.Search.Top,
		ResultsPerQuery: cfg.Search.Results,
		Concurrency:     cfg.Search.Concurrency,
		MissPenalty:     cfg.MissPenalty(),
		KeyMode:         keyMode,
		Verify:          cfg.Search.Verify,
	}

	if rio.progress != nil && cfg.Search.Top > 0 && cfg.Search.Results > 0 {
		bar := newProgressBar(rio.progress, len(ranking.Queries(area, runCfg.Templates)))
		p.Progress = func() { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	logger.Info("starting run",
		"area", area,
		"provider", p.Provider.Name(),
		"top", runCfg.Top,
		"results", runCfg.ResultsPerQuery,
		"verify", runCfg.Verify,
	)

	rep, err := p.Run(ctx, runCfg)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	if rep.FailedQueries == rep.TotalQueries && rep.TotalQueries > 0 {
		logger.Warn("every search failed", "queries", rep.TotalQueries)
	}

	if err := writeReport(rio.out, cfg.Output.File, format, rep); err != nil {
		return err
	}
	return saveReport(ctx, cfg.Export, rep, logger)
}

func buildDenylist(cfg config.SearchConfig) *analyzer.Denylist {
	var patterns []string
	if !cfg.NoDefaultDeny {
		patterns = append(patterns, analyzer.DefaultDenylist...)
	}
	patterns = append(patterns, cfg.Deny...)
	return analyzer.NewDenylist(patterns)
}

func buildFetcher(cfg config.HTTPConfig, logger *slog.Logger) (*scraper.Fetcher, error) {
	profile, err := fingerprint.ParseProfile(cfg.Fingerprint)
	if err != nil {
		return nil, err
	}
	strategy, err := useragent.ParseStrategy(cfg.UserAgentPolicy)
	if err != nil {
		return nil, err
	}

	fc := scraper.FetchConfig{
		Timeout:      cfg.Timeout,
		UseCookieJar: cfg.CookieJar,
		Retries:      cfg.Retries,
		RetryBackoff: cfg.RetryBackoff,
		UAPool:       useragent.NewPoolWithStrategy(cfg.UserAgents, strategy),
		Fingerprint:  profile,
		Logger:       logger,
	}
	if cfg.RPS > 0 {
		fc.Limiter = ratelimit.NewLimiter(cfg.RPS, cfg.Jitter)
	}

	if cfg.ProxyFile != "" || len(cfg.Proxies) > 0 {
		pool := proxy.NewPool(proxy.Config{})
		if cfg.ProxyFile != "" {
			if err := pool.LoadFile(cfg.ProxyFile); err != nil {
				return nil, err
			}
		}
		if err := pool.Add(cfg.Proxies...); err != nil {
			return nil, err
		}
		logger.Info("using proxies", "count", pool.Len())
		fc.ProxyPool = pool
	}

	return scraper.NewFetcher(fc)
}

func newProgressBar(w io.Writer, queries int) *progressbar.ProgressBar {
	return progressbar.NewOptions(queries,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("searching"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// writeReport renders to path when set, otherwise to out.
func writeReport(out io.Writer, path string, format report.Format, rep *pipeline.Report) error {
	if path == "" {
		return report.Write(out, format, rep)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := report.Write(f, format, rep); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// saveReport sends the report to every configured export sink.
func saveReport(ctx context.Context, cfg config.ExportConfig, rep *pipeline.Report, logger *slog.Logger) error {
	if !cfg.Enabled() {
		return nil
	}
	sinks, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("closing export sinks", "err", err)
		}
	}()

	if err := sinks.Save(ctx, rep); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	logger.Info("report exported", "sinks", len(sinks), "results", len(rep.Results))
	return nil
}

func openSinks(ctx context.Context, cfg config.ExportConfig) (export.Multi, error) {
	var sinks export.Multi
	open := func(name string, fn func() (export.Sink, error)) error {
		s, err := fn()
		if err != nil {
			return fmt.Errorf("open %s export: %w", name, err)
		}
		sinks = append(sinks, s)
		return nil
	}

	var err error
	if cfg.CSV != "" {
		err = errors.Join(err, open("csv", func() (export.Sink, error) { return csvexport.New(cfg.CSV) }))
	}
	if cfg.JSON != "" {
		err = errors.Join(err, open("json", func() (export.Sink, error) { return jsonexport.New(cfg.JSON) }))
	}
	if cfg.SQLite != "" {
		err = errors.Join(err, open("sqlite", func() (export.Sink, error) { return sqlite.New(cfg.SQLite) }))
	}
	if cfg.Postgres != "" {
		err = errors.Join(err, open("postgres", func() (export.Sink, error) { return postgres.New(ctx, cfg.Postgres) }))
	}
	if err != nil {
		_ = sinks.Close()
		return nil, err
	}
	return sinks, nil
}
