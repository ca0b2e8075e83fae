package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/rssfilter/pkg/aggregator"
	"github.com/umputun/rssfilter/pkg/config"
	"github.com/umputun/rssfilter/pkg/domain"
	"github.com/umputun/rssfilter/pkg/feed"
	"github.com/umputun/rssfilter/pkg/history"
	"github.com/umputun/rssfilter/pkg/scheduler"
	"github.com/umputun/rssfilter/server"
)

// Opts with all CLI options
type Opts struct {
	Config          string        `short:"c" long:"config" env:"CONFIG_PATH" default:"/app/config/config.json" description:"rule file (json or yaml)"`
	Listen          string        `short:"l" long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
	RefreshInterval time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"1h" description:"interval between refresh cycles"`
	MaxItems        int           `long:"max-items" env:"MAX_ITEMS" default:"15" description:"max items in the published feed"`
	FetchTimeout    time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10s" description:"per-feed fetch timeout"`
	UserAgent       string        `long:"user-agent" env:"USER_AGENT" default:"RSSAggregator/1.0" description:"user agent for feed requests"`

	Feed struct {
		Title       string `long:"title" env:"TITLE" default:"Aggregated RSS Feed" description:"published feed title"`
		Description string `long:"description" env:"DESCRIPTION" default:"Filtered RSS feed" description:"published feed description"`
		Link        string `long:"link" env:"LINK" default:"http://localhost/rss" description:"published feed link"`
	} `group:"feed" namespace:"feed" env-namespace:"AGG_FEED"`

	History struct {
		DSN  string `long:"dsn" env:"DSN" default:":memory:" description:"refresh journal database"`
		Keep int    `long:"keep" env:"KEEP" default:"100" description:"refresh records to keep"`
	} `group:"history" namespace:"history" env-namespace:"HISTORY"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)
	log.Printf("[INFO] starting rssfilter version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run wires all components and blocks until ctx is canceled or the server fails
func run(ctx context.Context, opts Opts) error {
	aggCfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Printf("[INFO] loaded %d feeds and %d master rules from %s", len(aggCfg.Feeds), len(aggCfg.MasterRules), opts.Config)

	journal, err := history.New(ctx, history.Config{DSN: opts.History.DSN, Keep: opts.History.Keep})
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			log.Printf("[WARN] failed to close history: %v", err)
		}
	}()

	pipeline := aggregator.NewPipeline(feed.NewHTTPFetcher(opts.FetchTimeout, opts.UserAgent), feed.NewParser())

	sched := scheduler.NewScheduler(scheduler.Params{
		Runner:      pipeline,
		Recorder:    journal,
		Aggregation: aggCfg,
		Interval:    opts.RefreshInterval,
		MaxItems:    opts.MaxItems,
	})

	srv := server.New(sched, journal, server.Params{
		Listen: opts.Listen,
		Channel: domain.Channel{
			Title:       opts.Feed.Title,
			Description: opts.Feed.Description,
			Link:        opts.Feed.Link,
			Language:    "en",
		},
		Version: revision,
		Debug:   opts.Debug,
	})

	// the first refresh runs alongside the server, readers get the empty snapshot until it completes
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}

func setupLog(dbg, noColor bool) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if noColor {
		color.NoColor = true
	} else {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
