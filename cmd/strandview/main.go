// Package main is the entry point for the strandview viewer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/strandview/internal/app"
	"github.com/dshills/strandview/internal/config"
	"github.com/dshills/strandview/internal/highlight"
	"github.com/dshills/strandview/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	rulesPath  string
	logLevel   string
	stats      bool
	lines      bool
	width      int
	height     int
	path       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.rulesPath != "" {
		cfg.Highlight.Rules = opts.rulesPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	headless := opts.stats || opts.lines
	log, closeLog, err := newLogger(cfg, headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	logging.SetDefault(log)

	var rules *highlight.RuleSet
	if cfg.Highlight.Rules != "" {
		rules, err = highlight.LoadFile(cfg.Highlight.Rules)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if headless {
		return runHeadless(opts, cfg, rules, log)
	}
	return runViewer(opts, cfg, rules, log)
}

// newLogger writes to stderr in headless mode. With the screen active,
// output goes to the configured file or is discarded.
func newLogger(cfg *config.Config, headless bool) (*logging.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closeFn := func() {}

	switch {
	case cfg.Logging.File != "":
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case !headless:
		out = io.Discard
	}

	return logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: out,
		Prefix: "strandview",
	}), closeFn, nil
}

func runViewer(opts options, cfg *config.Config, rules *highlight.RuleSet, log *logging.Logger) int {
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	screen.EnableMouse()

	application, err := app.New(screen, app.Options{
		Path:   opts.path,
		Config: cfg,
		Rules:  rules,
		Logger: log,
	})
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = application.Run(ctx)
	screen.Fini()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runHeadless(opts options, cfg *config.Config, rules *highlight.RuleSet, log *logging.Logger) int {
	content, err := os.ReadFile(opts.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	doc, err := loadDocument(string(content), cfg, rules, opts.width, opts.height, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.lines {
		if err := doc.WriteLines(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if opts.stats {
		report, err := statsJSON(opts.path, doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println(report)
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.rulesPath, "rules", "", "Highlight rules (.yaml, .toml or .lua)")
	flag.StringVar(&opts.rulesPath, "r", "", "Highlight rules (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.stats, "stats", false, "Print layout and cache statistics as JSON and exit")
	flag.BoolVar(&opts.lines, "lines", false, "Print the text broken into derived lines and exit")
	flag.IntVar(&opts.width, "width", 80, "Columns assumed by -stats and -lines")
	flag.IntVar(&opts.height, "height", 24, "Rows assumed by -stats and -lines")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "strandview - windowed viewer for large styled text\n\n")
		fmt.Fprintf(os.Stderr, "Usage: strandview [options] file\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  strandview genome.txt                 View a file\n")
		fmt.Fprintf(os.Stderr, "  strandview -r motifs.yaml genome.txt  View with highlight rules\n")
		fmt.Fprintf(os.Stderr, "  strandview -stats -width 120 seq.txt  Print layout statistics\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("strandview %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.path = flag.Arg(0)
	return opts
}
