package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tnpds-watch/shopcrawl/config"
	"github.com/tnpds-watch/shopcrawl/crawler"
	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/portal"
	"github.com/tnpds-watch/shopcrawl/probe"
	"github.com/tnpds-watch/shopcrawl/registry"
	"github.com/tnpds-watch/shopcrawl/report"
	"github.com/tnpds-watch/shopcrawl/session"
)

func main() {
	defaultCfg := config.DefaultConfig()

	registryDefault := defaultCfg.RegistryFile
	if value, ok := config.EnvString("CRAWLER_REGISTRY"); ok {
		registryDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("CRAWLER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("CRAWLER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	headlessDefault := defaultCfg.Headless
	if value, ok, err := config.EnvBool("CRAWLER_HEADLESS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CRAWLER_HEADLESS: %v\n", err)
		os.Exit(1)
	} else if ok {
		headlessDefault = value
	}

	registryFile := flag.String("registry", registryDefault, "Shop registry JSON file")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: json, csv, or dual")
	artifactsDir := flag.String("artifacts", defaultCfg.ArtifactsDir, "Directory for failure screenshots and page snapshots")
	portalURL := flag.String("portal-url", defaultCfg.PortalURL, "Portal base URL")
	headless := flag.Bool("headless", headlessDefault, "Run the browser headless")
	details := flag.Bool("details", defaultCfg.IncludeDetails, "Capture shop details and transactions")
	navTimeout := flag.Duration("nav-timeout", defaultCfg.NavigationTimeout, "Timeout per navigation wait")
	dialogTimeout := flag.Duration("dialog-timeout", defaultCfg.DialogTimeout, "Timeout for the transaction dialog to populate")
	maxAttempts := flag.Int("max-attempts", defaultCfg.MaxAttempts, "Attempts per shop before recording failure")
	retryPause := flag.Duration("retry-pause", defaultCfg.RetryPause, "Pause between retry attempts")
	deadline := flag.Duration("deadline", 0, "Overall run deadline (0 disables)")
	vocabFile := flag.String("status-vocab", "", "JSON file mapping status indicator text to online/offline")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	reg, err := registry.Load(*registryFile)
	if err != nil {
		slog.Error("loading registry", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.PortalURL = *portalURL
	cfg.RegistryFile = *registryFile
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.ArtifactsDir = *artifactsDir
	cfg.NavigationTimeout = *navTimeout
	cfg.DialogTimeout = *dialogTimeout
	cfg.MaxAttempts = *maxAttempts
	cfg.RetryPause = *retryPause
	cfg.RunDeadline = *deadline
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	// Registry options apply first; flags given explicitly on the command
	// line win over them.
	cfg.Headless = reg.Options.Headless
	cfg.IncludeDetails = reg.Options.IncludeDetails
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "headless":
			cfg.Headless = *headless
		case "details":
			cfg.IncludeDetails = *details
		}
	})

	if *vocabFile != "" {
		vocab, err := config.LoadVocabulary(*vocabFile)
		if err != nil {
			slog.Error("loading status vocabulary", slog.Any("error", err))
			os.Exit(1)
		}
		cfg.StatusVocabulary = vocab
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting crawl",
		slog.String("portal", cfg.PortalURL),
		slog.Int("shops", len(reg.Shops)),
		slog.Bool("headless", cfg.Headless),
		slog.Bool("details", cfg.IncludeDetails),
	)

	p, err := probe.New(cfg.PortalURL, cfg.UserAgent, 10*time.Second)
	if err != nil {
		slog.Error("initialising probe", slog.Any("error", err))
		os.Exit(1)
	}
	if err := p.Check(); err != nil {
		slog.Error("portal probe failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Debug("portal probe passed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RunDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunDeadline)
		defer cancel()
	}
	go func() {
		<-ctx.Done()
		slog.Info("shutdown requested, finishing current shop")
	}()

	factory := session.NewPlaywrightFactory(cfg.Headless, cfg.UserAgent, cfg.NavigationTimeout)
	runner, err := crawler.NewRunner(cfg,
		factory,
		portal.NewNavigator(cfg),
		portal.NewClassifier(cfg.StatusVocabulary),
		portal.NewExtractor(cfg),
	)
	if err != nil {
		slog.Error("initialising runner", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(runner.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := runner.Run(ctx, reg.Shops)
	if err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := report.New(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Write(result); err != nil {
		slog.Error("writing report", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result.Summary, cfg.OutputFile)
}

func printSummary(summary models.RunSummary, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")
	fmt.Printf("  Total shops:     %d\n", summary.TotalShops)
	fmt.Printf("  Online:          %d\n", summary.OnlineShops)
	fmt.Printf("  Offline:         %d\n", summary.OfflineShops)
	fmt.Printf("  Unknown:         %d\n", summary.UnknownShops)
	fmt.Printf("  Failed:          %d\n", summary.FailedShops)
	if summary.NotAttempted > 0 {
		fmt.Printf("  Not attempted:   %d\n", summary.NotAttempted)
	}
	fmt.Printf("  Retries:         %d\n", summary.RetryCount)
	fmt.Printf("  Session resets:  %d\n", summary.SessionResets)
	fmt.Printf("  Duration:        %v\n", summary.Duration)
	fmt.Printf("  Output file:     %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
