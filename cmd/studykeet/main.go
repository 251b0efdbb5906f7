package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/pflag"

	"studykeet/internal/config"
	"studykeet/internal/decksync"
	"studykeet/internal/storage"
	"studykeet/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("studykeet", pflag.ExitOnError)
	configPath := flags.String("config", "studykeet.yml", "Path to the YAML config file")
	flags.String("listen", "", "HTTP listen address")
	flags.String("db", "", "Path to the SQLite database file")
	flags.String("repos_dir", "", "Directory for deck repository checkouts")
	flags.String("log_level", "", "Log level (debug, info, warn, error)")
	addSource := flags.String("add-source", "", "Register a deck source (path or git URL) and exit")
	runSync := flags.Bool("sync", false, "Run one deck sync pass and exit")
	showStats := flags.Bool("stats", false, "Print collection statistics and exit")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "studykeet: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	// One process per database file; a second instance would race the
	// session registry against the first one's writes.
	lock := flock.New(cfg.DB + ".lock")
	locked, err := lock.TryLock()
	if err != nil || !locked {
		slog.Error("database is locked by another studykeet process", "db", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := storage.Open(cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "db", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "db", cfg.DB)

	ctx := context.Background()

	switch {
	case *addSource != "":
		typ := "local"
		if decksync.IsGitPath(*addSource) {
			typ = "git"
		}
		source, err := db.InsertSource(ctx, *addSource, typ)
		if err != nil {
			slog.Error("failed to add source", "path", *addSource, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Added %s source %d: %s\n", source.Type, source.ID, source.Path)

	case *runSync:
		if err := decksync.Run(ctx, db, cfg.ReposDir); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}

	case *showStats:
		if err := printStats(ctx, db); err != nil {
			slog.Error("failed to get stats", "error", err)
			os.Exit(1)
		}

	default:
		server := web.NewServer(db, cfg.ReposDir)
		slog.Info("serving studykeet API", "listen", cfg.Listen)
		if err := http.ListenAndServe(cfg.Listen, server); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func printStats(ctx context.Context, db *storage.DB) error {
	stats, err := db.Stats(ctx, time.Now())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Nest", "Cards"})
	for box := 1; box <= 4; box++ {
		t.AppendRow(table.Row{box, stats.BoxDistribution[box]})
	}
	t.AppendFooter(table.Row{"total", stats.Total})
	t.AppendFooter(table.Row{"due now", stats.DueToday})
	t.Render()
	return nil
}
