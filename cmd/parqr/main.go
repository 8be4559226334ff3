// Package main is the parqr CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/tailorck/parqr/internal/cli"
	"github.com/tailorck/parqr/internal/config"
	"github.com/tailorck/parqr/internal/forum"
	"github.com/tailorck/parqr/internal/modeltrain"
	"github.com/tailorck/parqr/internal/recommend"
	"github.com/tailorck/parqr/internal/scheduler"
	"github.com/tailorck/parqr/internal/stats"
	"github.com/tailorck/parqr/internal/storage"
	"github.com/tailorck/parqr/internal/syncer"
	"github.com/tailorck/parqr/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/parqr/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "parqr run" from the project dir uses the project's
// config (including debug). Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "run":
		runScheduler()
	case "sync":
		runSync()
	case "rebuild":
		runRebuild()
	case "query":
		runQuery()
	case "top-posts":
		runTopPosts()
	case "version", "--version", "-v":
		fmt.Printf("parqr version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runScheduler() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (sync diffs, cache reloads, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Int("courses", len(cfg.Courses)),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	sched := scheduler.New(
		components.Synchronizer,
		components.Trainer,
		cfg.Courses,
		cfg.Sync.Interval(),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sched.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	<-done
}

func runSync() {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	rebuild := fs.Bool("rebuild", true, "rebuild models when the pass changed anything")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: parqr sync [flags] <course-id>")
		os.Exit(1)
	}
	courseID := fs.Arg(0)

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	changed, err := components.Synchronizer.Sync(context.Background(), courseID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}
	if !changed {
		fmt.Printf("Course %s is up to date\n", courseID)
		return
	}
	fmt.Printf("Course %s synced\n", courseID)
	if *rebuild {
		if err := components.Trainer.Rebuild(context.Background(), courseID); err != nil {
			fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Models rebuilt for %s\n", courseID)
	}
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: parqr rebuild [flags] <course-id>")
		os.Exit(1)
	}
	courseID := fs.Arg(0)

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	if err := components.Trainer.Rebuild(context.Background(), courseID); err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Models rebuilt for %s\n", courseID)
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	course := fs.String("course", "", "course id (required)")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *course == "" || fs.NArg() < 1 {
		fmt.Println("Usage: parqr query --course <course-id> [flags] <query>")
		os.Exit(1)
	}
	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryStr == "" {
		fmt.Println("Usage: parqr query --course <course-id> [flags] <query>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	recs, err := components.Scorer.Recommend(context.Background(), *course, queryStr, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendations(os.Stdout, recs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runTopPosts() {
	fs := flag.NewFlagSet("top-posts", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of posts")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: parqr top-posts [flags] <course-id>")
		os.Exit(1)
	}
	courseID := fs.Arg(0)
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	top, err := components.Reporter.TopAttentionWarranted(context.Background(), courseID, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "top-posts failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAttentionPosts(os.Stdout, top, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, builds a logger and initializes the component graph,
// exiting on any failure. Shared by the one-shot subcommands.
func setup(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, components
}

// Components holds initialized services.
type Components struct {
	PostStore    storage.PostStore
	ModelStore   storage.ModelStore
	Synchronizer *syncer.Synchronizer
	Trainer      *modeltrain.Trainer
	Cache        *recommend.Cache
	Scorer       *recommend.Scorer
	Reporter     *stats.Reporter
}

func (c *Components) Close() {
	if c.PostStore != nil {
		_ = c.PostStore.Close()
	}
	if c.ModelStore != nil {
		_ = c.ModelStore.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	postStore, err := storage.NewSQLitePostStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize post store: %w", err)
	}
	modelStore, err := storage.NewBadgerModelStore(cfg.Storage.ModelStorePath)
	if err != nil {
		_ = postStore.Close()
		return nil, fmt.Errorf("failed to initialize model store: %w", err)
	}

	source := forum.NewClient(cfg.Forum.BaseURL, cfg.Forum.Token, cfg.Forum.Timeout())
	sync := syncer.New(source, postStore, logger,
		syncer.WithPassTimeout(cfg.Sync.PassTimeout()),
	)
	trainer := modeltrain.NewTrainer(postStore, modelStore, logger)
	cache := recommend.NewCache(modelStore, cfg.Recommend.ReloadDelay(), logger)
	scorer := recommend.NewScorer(postStore, cache, &cfg.Recommend, logger)
	reporter := stats.NewReporter(postStore, logger)

	return &Components{
		PostStore:    postStore,
		ModelStore:   modelStore,
		Synchronizer: sync,
		Trainer:      trainer,
		Cache:        cache,
		Scorer:       scorer,
		Reporter:     reporter,
	}, nil
}

func printUsage() {
	fmt.Println(`parqr - Forum course sync and recommendation engine

Usage:
  parqr run [flags]                          Run the periodic sync and rebuild loop
  parqr sync [flags] <course-id>             Run one sync pass for a course
  parqr rebuild [flags] <course-id>          Retrain a course's models from stored posts
  parqr query --course <id> [flags] <query>  Find posts similar to a query
  parqr top-posts [flags] <course-id>        Show posts most needing attention
  parqr version                              Show version
  parqr help                                 Show this help

Run Flags:
  --config string    Config file path (default: /usr/local/etc/parqr/config.yaml)
  --debug            Enable debug logging (sync diffs, cache reloads, etc.)

Sync Flags:
  --config string    Config file path
  --rebuild          Rebuild models when the pass changed anything (default: true)

Query Flags:
  --config string    Config file path
  --course string    Course id (required)
  --limit int        Number of results (default from config)
  --output string    Output format: text or json (default: text)

Top-Posts Flags:
  --config string    Config file path
  --limit int        Number of posts (default: 10)
  --output string    Output format: text or json (default: text)

Examples:
  parqr run
  parqr sync j8rf9vx3kisg
  parqr query --course j8rf9vx3kisg "minimax alpha beta pruning"
  parqr query --course j8rf9vx3kisg --output json "garbage collection"
  parqr top-posts --limit 5 j8rf9vx3kisg`)
}
