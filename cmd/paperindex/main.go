// Package main is the paperindex CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/cli"
	"github.com/hyperjump/paperindex/internal/config"
	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/persist"
	"github.com/hyperjump/paperindex/internal/server"
	"github.com/hyperjump/paperindex/internal/session"
	"github.com/hyperjump/paperindex/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/paperindex/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, and a missing default file yields the built-in
// defaults with "./" paths under the current directory.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	for _, candidate := range []string{filepath.Join(cwd, "config.yaml"), defaultConfigPath} {
		if _, statErr := os.Stat(candidate); statErr != nil {
			continue
		}
		cfg, loadErr := config.Load(candidate)
		if loadErr != nil {
			return nil, "", loadErr
		}
		return cfg, candidate, nil
	}
	return config.Default(cwd), "", nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "run":
		runSession()
	case "serve", "server":
		runServer()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "similar":
		runSimilar()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("paperindex version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config, builds a logger and opens every component.
// Interactive commands get a quieter console logger.
func setup(configPath string, debugFlag, interactive bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	newLogger := utils.NewLogger
	if interactive {
		newLogger = utils.NewInteractiveLogger
	}
	logger, err := newLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	return cfg, logger, components
}

func runSession() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug, true)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	stopWatch := components.StartWatcher(ctx, logger)
	defer stopWatch()

	summarizer, err := newSummarizer(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize summarizer: %v\n", err)
		os.Exit(1)
	}
	fetcher := newFetcher(cfg, logger)
	s := session.New(components.Index, fetcher, summarizer, components.Catalog, session.Options{
		MaxResults:        cfg.PubMed.MaxResults,
		MinAbstractLength: cfg.PubMed.MinAbstractLength,
		RelatedLimit:      cfg.Search.RelatedLimit,
		CatalogLimit:      cfg.Search.MaxLimit,
	}, logger)
	if err := s.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("session ended with error", zap.Error(err))
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug, false)
	defer logger.Sync()
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	stopWatch := components.StartWatcher(watchCtx, logger)
	defer stopWatch()

	srv := server.NewServer(components.Index, components.Catalog, components.Layer, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printAddUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: paperindex add [flags] --id <id> <summary text>\n\n")
	fmt.Fprintf(fs.Output(), "Summary text is all remaining arguments joined by spaces, or stdin when --stdin is set.\n\n")
	fs.PrintDefaults()
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the state files directly)")
	id := fs.String("id", "", "paper id (e.g. a PMID)")
	title := fs.String("title", "", "paper title")
	year := fs.String("year", "", "publication year")
	fromStdin := fs.Bool("stdin", false, "read the text from stdin")
	summarizeText := fs.Bool("summarize", false, "treat the text as an abstract and summarize it first")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAddUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	text := joinArgs(fs.Args())
	if *fromStdin {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to read stdin: %v\n", readErr)
			os.Exit(1)
		}
		text = strings.TrimSpace(string(data))
	}
	if strings.TrimSpace(*id) == "" || text == "" {
		printAddUsage(fs)
		os.Exit(1)
	}
	input := models.PaperInput{ID: *id, Summary: text, Title: *title, Year: *year}
	ctx := context.Background()

	if *serverURL != "" {
		if *summarizeText {
			fmt.Fprintln(os.Stderr, "--summarize is not available with --server; summarize locally or add the summary directly")
			os.Exit(1)
		}
		res, err := cli.NewClient(*serverURL).AddPaper(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
			os.Exit(1)
		}
		writeAddResult(res.Paper, res.Duplicate, format)
		return
	}

	cfg, logger, components := setup(*configPath, false, false)
	defer logger.Sync()
	defer components.Close()

	if *summarizeText {
		summarizer, err := newSummarizer(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize summarizer: %v\n", err)
			os.Exit(1)
		}
		summary, err := summarizer.Summarize(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Summarize failed: %v\n", err)
			os.Exit(1)
		}
		input.Summary = summary
	}
	res, err := components.Index.Add(ctx, input.Paper())
	if err != nil {
		var perr *persist.PersistenceError
		if errors.As(err, &perr) {
			fmt.Fprintf(os.Stderr, "Warning: paper added for this run but not saved: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		}
		os.Exit(1)
	}
	writeAddResult(res.Paper, res.Duplicate, format)
}

func writeAddResult(p models.Paper, duplicate bool, format cli.OutputFormat) {
	if format == cli.OutputText {
		if duplicate {
			fmt.Printf("Paper %s is already stored; kept the existing record.\n\n", p.ID)
		} else {
			fmt.Printf("Added paper %s.\n\n", p.ID)
		}
	}
	if err := cli.WritePaper(os.Stdout, p, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: paperindex search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  paperindex search cardiovascular risk in diabetes
  paperindex search --limit 5 "statin therapy"
  paperindex search --server http://localhost:8080 --output json statins
`)
}

// joinArgs joins all positional args with spaces so multi-word input
// works the same with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops
// at the first non-flag argument, so "paperindex search statins --limit 5" would
// otherwise leave --limit unparsed.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the state files directly)")
	limit := fs.Int("limit", 0, "number of results (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	query := models.SearchQuery{Query: joinArgs(fs.Args()), Limit: *limit}
	if query.Query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = cli.NewClient(*serverURL).Search(ctx, query.Query, query.Limit)
	} else {
		cfg, logger, components := setup(*configPath, false, false)
		defer logger.Sync()
		defer components.Close()
		if err := query.Validate(cfg.Search.DefaultLimit, cfg.Search.MaxLimit); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		start := time.Now()
		var results []models.ScoredPaper
		results, err = components.Index.Search(ctx, query.Query, query.Limit)
		response = &models.SearchResponse{
			Query:     query.Query,
			Results:   results,
			Total:     len(results),
			QueryTime: time.Since(start).Milliseconds(),
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the state files directly)")
	k := fs.Int("k", 0, "number of related papers (default search.related_limit)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: paperindex similar [flags] <paper id>\n")
		os.Exit(1)
	}
	id := fs.Arg(0)
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = cli.NewClient(*serverURL).Similar(ctx, id, *k)
	} else {
		cfg, logger, components := setup(*configPath, false, false)
		defer logger.Sync()
		defer components.Close()
		if !components.Index.Contains(id) {
			fmt.Fprintf(os.Stderr, "Paper %s is not stored\n", id)
			os.Exit(1)
		}
		limit := models.ClampLimit(*k, cfg.Search.RelatedLimit, cfg.Search.MaxLimit)
		start := time.Now()
		var results []models.ScoredPaper
		results, err = components.Index.SimilarByID(ctx, id, limit)
		response = &models.SearchResponse{
			SeedID:    id,
			Results:   results,
			Total:     len(results),
			QueryTime: time.Since(start).Milliseconds(),
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Similar failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the state files directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status *models.Status
	if *serverURL != "" {
		status, err = cli.NewClient(*serverURL).Status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger, components := setup(*configPath, false, false)
		defer logger.Sync()
		defer components.Close()
		st := server.StatusOf(components.Index, components.Layer, cfg)
		status = &st
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`paperindex - Semantic index of PubMed paper summaries

Usage:
  paperindex run [flags]                    Interactive keyword session (fetch, summarize, index, relate)
  paperindex serve [flags]                  Start the HTTP server
  paperindex add [flags] --id <id> <text>   Add a paper summary
  paperindex search [flags] <query>         Semantic search over stored summaries
  paperindex similar [flags] <id>           Papers related to a stored paper
  paperindex status [flags]                 Show index status
  paperindex version                        Show version
  paperindex help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/paperindex/config.yaml,
                     then ./config.yaml, then built-in defaults)
  --debug            Enable debug logging (run, serve)
  --server string    Server URL for add/search/similar/status. Empty (default) opens the state files directly.
  --output string    Output format: text or json (default: text)

Add Flags:
  --id string        Paper id (required)
  --title string     Paper title
  --year string      Publication year
  --stdin            Read the text from stdin
  --summarize        Summarize the text before adding (not with --server)

Examples:
  paperindex run
  paperindex serve --debug
  paperindex add --id 12345 --title "Statins and MI" --year 2021 "Statins reduce myocardial infarction risk."
  paperindex search cardiovascular risk
  paperindex similar --k 5 12345
  paperindex status --output json`)
}
