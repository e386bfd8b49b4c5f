package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/api"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/config"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/discover"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/extract"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/fetch"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/monitoring"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/orchestrator"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/output"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/proxy"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/storage"
)

func main() {
	var (
		serve      = flag.Bool("serve", false, "run the HTTP API server instead of a one-shot batch")
		query      = flag.String("query", "", "discovery query, e.g. \"fintech startups\"")
		urlList    = flag.String("urls", "", "comma-separated company URLs to scrape")
		inputFile  = flag.String("input", "", "file with one company URL per line")
		level      = flag.String("level", "basic", "extraction level: basic, medium, advanced")
		format     = flag.String("format", "", "output format: json, csv, excel (default from config)")
		maxResults = flag.Int("max", 0, "maximum discovery results (default from config)")
		checkProxy = flag.Bool("check-proxies", false, "health-check the proxy pool and exit")
	)
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	metrics := monitoring.NewMetrics()

	strategy, err := proxy.ParseStrategy(cfg.ProxyStrategy)
	if err != nil {
		logger.Fatal("invalid proxy strategy", zap.Error(err))
	}
	pool := proxy.NewPool(proxy.Options{
		Strategy:        strategy,
		MaxFailures:     cfg.ProxyMaxFailures,
		TestURL:         cfg.ProxyTestURL,
		TestTimeout:     time.Duration(cfg.ProxyTestTimeout) * time.Second,
		DispatchTimeout: time.Duration(cfg.DispatchTimeout) * time.Second,
		Retries:         cfg.DispatchRetries,
		Backoff:         time.Duration(cfg.DispatchBackoff) * time.Millisecond,
	}, logger)
	pool.OnOutcome(metrics.IncProxyDispatch)
	ctx := context.Background()
	pool.Load(ctx, proxy.FileSource{Path: cfg.ProxyFile})

	if *checkProxy {
		pool.Load(ctx, proxy.DefaultRemoteSources()...)
		working, failed := pool.HealthCheckAll(ctx)
		logger.Info("proxy health check complete", zap.Int("working", working), zap.Int("failed", failed))
		if err := pool.SaveWorking(cfg.ProxyFile); err != nil {
			logger.Error("could not save working proxies", zap.Error(err))
		}
		return
	}

	fetcher := fetch.New(fetch.Options{
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RenderTimeout:  time.Duration(cfg.RenderTimeout) * time.Second,
		SettleDelay:    time.Duration(cfg.RenderSettleMS) * time.Millisecond,
		RatePerSec:     cfg.FetchRatePerSec,
	}, logger)
	defer fetcher.Close()

	extractor := extract.New(fetcher, logger)

	delayMin, delayMax := cfg.SearchDelayRange()
	engine := discover.NewEngine(discover.Options{
		DelayMin: delayMin,
		DelayMax: delayMax,
		Fetcher:  fetcher,
	}, logger)

	orch := orchestrator.New(engine, extractor, metrics, logger)

	// Storage backends are opt-in: an unset URL leaves them disabled.
	var pgStore *storage.PostgresStore
	var redisStore *storage.RedisStore
	if cfg.PostgresURL != "" {
		pgStore, err = storage.NewPostgresStore(cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pgStore.Close()
	}
	if cfg.RedisAddr != "" {
		redisStore = storage.NewRedisStore(cfg.RedisAddr)
		defer redisStore.Close()
	}
	if pgStore != nil || redisStore != nil {
		dedupTTL := time.Duration(cfg.DeduplicationDays) * 24 * time.Hour
		orch.WithStores(recordStoreOrNil(pgStore), dedupStoreOrNil(redisStore), dedupTTL)
	}

	writer, err := output.NewWriter(cfg.OutputDir, logger)
	if err != nil {
		logger.Fatal("could not prepare output directory", zap.Error(err))
	}

	if *serve {
		runServer(cfg, orch, engine, pool, writer, pgStore, redisStore, logger)
		return
	}

	runBatch(ctx, cfg, orch, writer, logger, batchArgs{
		query:      *query,
		urlList:    *urlList,
		inputFile:  *inputFile,
		level:      *level,
		format:     *format,
		maxResults: *maxResults,
	})
}

// Typed-nil interface values would defeat the orchestrator's nil checks, so
// the conversion only happens for live stores.
func recordStoreOrNil(s *storage.PostgresStore) orchestrator.RecordStore {
	if s == nil {
		return nil
	}
	return s
}

func dedupStoreOrNil(s *storage.RedisStore) orchestrator.DedupStore {
	if s == nil {
		return nil
	}
	return s
}

type batchArgs struct {
	query      string
	urlList    string
	inputFile  string
	level      string
	format     string
	maxResults int
}

func runBatch(ctx context.Context, cfg *config.Config, orch *orchestrator.Orchestrator,
	writer *output.Writer, logger *zap.Logger, args batchArgs) {
	tier, err := domain.ParseTier(args.level)
	if err != nil {
		logger.Fatal("invalid level flag", zap.Error(err))
	}

	urls, err := collectInputURLs(args.urlList, args.inputFile)
	if err != nil {
		logger.Fatal("could not read input URLs", zap.Error(err))
	}
	if len(urls) == 0 && args.query == "" {
		flag.Usage()
		os.Exit(2)
	}

	maxResults := args.maxResults
	if maxResults <= 0 {
		maxResults = cfg.MaxSearchResults
	}

	// Interrupts stop the batch between items; partial results still export.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch.OnProgress(func(p domain.Progress) {
		fmt.Printf("[%d/%d] %s ok=%v\n", p.Processed, p.Total, p.URL, p.OK)
	})

	var result *domain.BatchResult
	if len(urls) > 0 {
		result, err = orch.RunURLs(ctx, urls, tier)
	} else {
		result, err = orch.RunQuery(ctx, args.query, tier, maxResults)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("batch failed", zap.Error(err))
	}
	if result == nil {
		return
	}

	formatName := args.format
	if formatName == "" {
		formatName = cfg.OutputFormat
	}
	outFormat, err := output.ParseFormat(formatName)
	if err != nil {
		logger.Fatal("invalid format flag", zap.Error(err))
	}

	if len(result.Succeeded) > 0 {
		path, err := writer.Save(result.Succeeded, outFormat, "companies_data")
		if err != nil {
			logger.Fatal("could not save results", zap.Error(err))
		}
		fmt.Printf("saved %d records to %s\n", len(result.Succeeded), path)
	}
	fmt.Printf("done: %d succeeded, %d failed in %s\n",
		len(result.Succeeded), len(result.Failed), result.Duration.Round(time.Millisecond))
	for _, item := range result.Failed {
		fmt.Printf("  failed: %s (%s)\n", item.URL, item.Error)
	}
}

func collectInputURLs(urlList, inputFile string) ([]string, error) {
	var urls []string
	for _, u := range strings.Split(urlList, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if inputFile == "" {
		return urls, nil
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func runServer(cfg *config.Config, orch *orchestrator.Orchestrator, engine *discover.Engine,
	pool *proxy.Pool, writer *output.Writer, pgStore *storage.PostgresStore,
	redisStore *storage.RedisStore, logger *zap.Logger) {
	server := api.NewServer(cfg, orch, engine, pool, writer, pgStore, redisStore, logger)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
