package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tinytelemetry/logmine/internal/cluster"
	"github.com/tinytelemetry/logmine/internal/duckdb"
	"github.com/tinytelemetry/logmine/internal/logging"
	"github.com/tinytelemetry/logmine/internal/logsource"
	"github.com/tinytelemetry/logmine/internal/miner"
	"github.com/tinytelemetry/logmine/internal/model"
	"github.com/tinytelemetry/logmine/internal/pattern"
	"github.com/tinytelemetry/logmine/internal/progress"
	"github.com/tinytelemetry/logmine/internal/report"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "logmine [flags] [file]",
		Short: "Discover recurring patterns in log lines",
		Long: `logmine groups similar log lines into clusters and prints one template per
cluster, with the tokens that vary between members replaced by "---".

Input is read from the given file, or from stdin when no file (or "-") is given.
Settings can also come from LOGMINE_* environment variables or a YAML config file.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runCluster,
		Version:      version,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.config/logmine/config.yml)")
	pf.String("log-level", defaultLogLevel, "log level: none, debug, info, warn or error")
	pf.String("log-format", defaultLogFormat, "log format: text or json")

	f := root.Flags()
	f.Float64("max-distance", defaultMaxDistance, "largest distance (0..1) at which a line joins a cluster")
	f.Int("min-members", defaultMinMembers, "smallest cluster size to report")
	f.IntP("jobs", "j", 0, "worker count, 0 for one per physical core")
	f.String("split", pattern.DefaultSeparator, "regular expression separating tokens")
	f.Int("chunk-size", miner.DefaultChunkSize, "lines each worker takes from the input at once")
	f.Int("refill-attempts", miner.DefaultRefillAttempts, "non-blocking top-ups a worker tries per chunk")
	f.StringP("format", "f", defaultFormat, "output format: text, json or yaml")
	f.Bool("sort", false, "order clusters by member count, largest first")
	f.String("color", defaultColor, "color text output: auto, always or never")
	f.Bool("progress", true, "show a progress spinner when stderr is a terminal")
	f.String("db", "", "archive the report in this DuckDB file")

	root.AddCommand(newServeCommand(), newGenerateCommand(), newVersionCommand())
	return root
}

func newLogger(cfg appConfig) (*zap.Logger, error) {
	return logging.New(cfg.LogFormat, cfg.LogLevel,
		zap.String("build.version", version), zap.String("build.commit", commit))
}

func runCluster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	format, _ := report.ParseFormat(cfg.Format)
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	var (
		input io.Reader
		name  string
	)
	if len(args) == 0 || args[0] == "-" {
		input, name = cmd.InOrStdin(), logsource.StdinName
		if isTerminal(input) {
			logger.Warn("reading log lines from the terminal, end input with Ctrl-D")
		}
	} else {
		rc, n, err := logsource.Open(args[0])
		if err != nil {
			return err
		}
		defer rc.Close()
		input, name = rc, n
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := cfg.Jobs
	if jobs == 0 {
		jobs = miner.DefaultJobs()
	}

	var processed atomic.Int64
	var spinner *progress.Indicator
	if cfg.Progress && isTerminal(errOut) {
		spinner = progress.Start(errOut, &processed)
	}

	res, err := miner.Run(ctx, input, miner.Config{
		Options:        cluster.Options{MaxDist: cfg.MaxDistance, MinMembers: cfg.MinMembers},
		Separator:      cfg.Split,
		Jobs:           jobs,
		ChunkSize:      cfg.ChunkSize,
		RefillAttempts: cfg.RefillAttempts,
		Progress:       &processed,
		Logger:         logger,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	logger.Info("clustering complete",
		zap.String("source", name),
		zap.Int64("lines", res.Lines),
		zap.Int("clusters", len(res.Clusters)),
		zap.Int("jobs", jobs))

	entries := report.Entries(res.Clusters, cfg.Sort)

	if cfg.DBPath != "" {
		if err := archive(cfg, name, jobs, res.Lines, entries, logger); err != nil {
			return err
		}
	}

	return report.Write(out, entries, report.Options{
		Format: format,
		Color:  useColor(cfg.Color, out),
	})
}

func archive(cfg appConfig, source string, jobs int, lines int64, entries []report.Entry, logger *zap.Logger) error {
	store, err := duckdb.NewStore(expandHome(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	run, err := store.SaveRun(model.Run{
		Source:      source,
		MaxDistance: cfg.MaxDistance,
		MinMembers:  cfg.MinMembers,
		Jobs:        jobs,
		Lines:       lines,
	}, report.PatternRows(entries))
	if err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}
	logger.Info("report archived", zap.String("run_id", run.ID), zap.String("db", store.Path()))
	return nil
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	}
	return os.Getenv("NO_COLOR") == "" && isTerminal(w)
}
