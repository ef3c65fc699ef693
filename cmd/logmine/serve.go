package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tinytelemetry/logmine/internal/duckdb"
	"github.com/tinytelemetry/logmine/internal/httpserver"
	"github.com/tinytelemetry/logmine/internal/model"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve archived reports over HTTP",
		Long: `serve exposes the runs archived with --db through a read-only JSON API:

  GET /api/health
  GET /api/runs?limit=N
  GET /api/runs/:id
  GET /api/runs/:id/patterns?min_count=N`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runServe,
	}
	cmd.Flags().String("db", "", "DuckDB archive (default is $HOME/.local/share/logmine/logmine.duckdb)")
	cmd.Flags().String("addr", model.DefaultServeAddr, "listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dbPath := expandHome(cfg.DBPath)
	if dbPath == "" {
		if dbPath, err = defaultDBPath(); err != nil {
			return err
		}
	}

	store, err := duckdb.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	srv := httpserver.NewServer(cfg.Addr, store)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP API: %w", err)
	}

	runs, err := store.RunCount()
	if err != nil {
		logger.Warn("could not count archived runs", zap.Error(err))
	}
	printStartupBanner(cmd.ErrOrStderr(), srv.Addr(), dbPath, runs)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down HTTP API")
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("failed to stop HTTP API: %w", err)
	}
	return nil
}

func printStartupBanner(w io.Writer, addr, dbPath string, runs int64) {
	r := lipgloss.NewRenderer(w)
	dim := r.NewStyle().Foreground(lipgloss.Color("240"))
	green := r.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := r.NewStyle().Foreground(lipgloss.Color("39"))
	bold := r.NewStyle().Bold(true)

	check := green.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "    "+cyan.Bold(true).Render("logmine")+" "+dim.Render("v"+version))
	lines = append(lines, "")
	lines = append(lines, dim.Render("    ─────────────────────────────────"))
	lines = append(lines, "")
	lines = append(lines, bold.Render("    Archive"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render("http://"+addr)))
	lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(shortenPath(dbPath))))
	lines = append(lines, fmt.Sprintf("    %s  Runs           %s", check, dim.Render(fmt.Sprint(runs))))
	lines = append(lines, "")
	lines = append(lines, dim.Render("    Press Ctrl+C to stop"))
	lines = append(lines, "")

	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

// shortenPath replaces the home directory prefix with ~.
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if rel, err := filepath.Rel(home, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join("~", rel)
	}
	return path
}
